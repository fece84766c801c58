// Package notify fans due-alert batches out to the notification channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"schedule_manager/internal/model"
)

// Speaker is the interface for queueing a spoken announcement. Enqueue must
// not block the caller.
type Speaker interface {
	Enqueue(message string)
}

// Prompter surfaces a message to the user and blocks until it is
// acknowledged.
type Prompter interface {
	Prompt(message string) error
}

// Dispatcher delivers each due-alert batch to the speech queue, the visual
// indicator, and a blocking acknowledgment prompt. The channels are
// independent: a failure in one is logged and never prevents the others
// from firing.
type Dispatcher struct {
	speech   Speaker
	visual   *Indicator
	prompter Prompter
	log      *slog.Logger

	mu   sync.Mutex
	subs []func([]model.Entry)
}

// NewDispatcher creates a Dispatcher wired to the given channels.
func NewDispatcher(speech Speaker, visual *Indicator, prompter Prompter, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		speech:   speech,
		visual:   visual,
		prompter: prompter,
		log:      log,
	}
}

// Subscribe registers a callback invoked with every dispatched batch.
func (d *Dispatcher) Subscribe(fn func([]model.Entry)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

// Dispatch delivers a batch of due entries to all channels. The prompt runs
// on its own goroutine so the caller's scan cycle is never blocked on user
// acknowledgment; the visual attention state clears when the prompt
// returns.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []model.Entry) {
	if len(batch) == 0 {
		return
	}
	msg := Summary(batch)

	d.speech.Enqueue(msg)
	d.visual.Alert(msg)

	go func() {
		if err := d.prompter.Prompt(msg); err != nil {
			d.log.Error("acknowledgment prompt", "error", err)
			return
		}
		d.visual.Acknowledge()
	}()

	d.mu.Lock()
	subs := make([]func([]model.Entry), len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()
	for _, fn := range subs {
		fn(batch)
	}
}

// Summary builds the human-readable message for a batch of due entries.
func Summary(batch []model.Entry) string {
	parts := make([]string, 0, len(batch))
	for _, e := range batch {
		parts = append(parts, fmt.Sprintf("%s has reached its alert time", e.Title))
	}
	return strings.Join(parts, "; ")
}
