// Package speech implements the single-consumer spoken announcement queue.
package speech

import (
	"context"
	"log/slog"
	"sync"
)

// Synthesizer announces one message and returns when it finishes or ctx is
// cancelled.
type Synthesizer interface {
	Say(ctx context.Context, message string) error
}

// Worker serializes spoken announcements through a single background
// consumer. The queue is unbounded and Enqueue never blocks. Announcements
// run one at a time; an interrupt cancels the in-flight announcement and
// flushes the queue without stopping the worker.
type Worker struct {
	synth Synthesizer
	log   *slog.Logger

	mu          sync.Mutex
	cond        *sync.Cond
	queue       []string
	interrupted bool
	stopped     bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewWorker creates a Worker. Call Run on its own goroutine before using it.
func NewWorker(synth Synthesizer, log *slog.Logger) *Worker {
	w := &Worker{
		synth: synth,
		log:   log,
		done:  make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Run processes the queue until Stop is called, announcing one message at a
// time and blocking while the queue is empty.
func (w *Worker) Run() {
	defer close(w.done)

	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.stopped {
			w.cond.Wait()
		}
		if w.stopped {
			w.mu.Unlock()
			return
		}
		msg := w.queue[0]
		w.queue = w.queue[1:]
		if w.interrupted {
			// Interrupted: discard without announcing.
			w.mu.Unlock()
			continue
		}
		ctx, cancel := context.WithCancel(context.Background())
		w.cancel = cancel
		w.mu.Unlock()

		err := w.synth.Say(ctx, msg)

		w.mu.Lock()
		w.cancel = nil
		w.mu.Unlock()
		cancel()

		if err != nil && ctx.Err() == nil {
			w.log.Error("speech synthesis", "error", err)
		}
	}
}

// Enqueue appends a message to the queue. After Stop it is a no-op.
func (w *Worker) Enqueue(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.queue = append(w.queue, message)
	w.cond.Signal()
}

// Interrupt with active=true halts any in-progress announcement, discards
// everything queued, and drops further messages until Interrupt(false);
// the worker itself keeps running.
func (w *Worker) Interrupt(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interrupted = active
	if active {
		w.queue = nil
		if w.cancel != nil {
			w.cancel()
		}
	}
}

// Stop clears the queue, cancels any in-flight announcement, and waits for
// the processing loop to exit. Safe to call more than once.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.stopped = true
	w.queue = nil
	if w.cancel != nil {
		w.cancel()
	}
	w.cond.Broadcast()
	w.mu.Unlock()
	<-w.done
}
