package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// recordingSynth records spoken messages and optionally blocks until the
// context is cancelled or release is closed.
type recordingSynth struct {
	mu      sync.Mutex
	spoken  []string
	started chan string
	release chan struct{}
	err     error
}

func (s *recordingSynth) Say(ctx context.Context, message string) error {
	if s.started != nil {
		s.started <- message
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, message)
	return nil
}

func (s *recordingSynth) getSpoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]string, len(s.spoken))
	copy(cp, s.spoken)
	return cp
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWorkerAnnouncesInOrder(t *testing.T) {
	synth := &recordingSynth{}
	w := NewWorker(synth, discardLogger())
	go w.Run()
	t.Cleanup(w.Stop)

	w.Enqueue("one")
	w.Enqueue("two")
	w.Enqueue("three")

	waitFor(t, "all messages spoken", func() bool { return len(synth.getSpoken()) == 3 })

	if diff := cmp.Diff([]string{"one", "two", "three"}, synth.getSpoken()); diff != "" {
		t.Errorf("spoken order mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkerInterruptFlushesQueue(t *testing.T) {
	synth := &recordingSynth{}
	w := NewWorker(synth, discardLogger())

	// Enqueue before the consumer starts so nothing has been announced yet.
	w.Enqueue("one")
	w.Enqueue("two")
	w.Enqueue("three")
	w.Interrupt(true)

	go w.Run()
	t.Cleanup(w.Stop)

	// The worker is still alive and resumes once the interrupt lifts.
	w.Interrupt(false)
	w.Enqueue("fresh")

	waitFor(t, "fresh message spoken", func() bool { return len(synth.getSpoken()) == 1 })

	if diff := cmp.Diff([]string{"fresh"}, synth.getSpoken()); diff != "" {
		t.Errorf("spoken mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkerInterruptCancelsInFlight(t *testing.T) {
	synth := &recordingSynth{
		started: make(chan string, 1),
		release: make(chan struct{}),
	}
	w := NewWorker(synth, discardLogger())
	go w.Run()
	t.Cleanup(w.Stop)

	w.Enqueue("long announcement")
	<-synth.started

	// Halt mid-utterance; the synthesizer returns via context cancellation.
	w.Interrupt(true)
	w.Interrupt(false)

	w.Enqueue("after interrupt")
	<-synth.started
	close(synth.release)

	waitFor(t, "post-interrupt message", func() bool {
		return cmp.Diff([]string{"after interrupt"}, synth.getSpoken()) == ""
	})
}

func TestWorkerDiscardsWhileInterrupted(t *testing.T) {
	synth := &recordingSynth{}
	w := NewWorker(synth, discardLogger())
	go w.Run()
	t.Cleanup(w.Stop)

	w.Interrupt(true)
	w.Enqueue("dropped one")
	w.Enqueue("dropped two")

	// Give the consumer a moment to drain the discarded messages.
	time.Sleep(30 * time.Millisecond)
	w.Interrupt(false)
	w.Enqueue("kept")

	waitFor(t, "kept message", func() bool { return len(synth.getSpoken()) >= 1 })

	if diff := cmp.Diff([]string{"kept"}, synth.getSpoken()); diff != "" {
		t.Errorf("spoken mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkerStop(t *testing.T) {
	synth := &recordingSynth{}
	w := NewWorker(synth, discardLogger())

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	w.Enqueue("spoken before stop")
	waitFor(t, "message spoken", func() bool { return len(synth.getSpoken()) == 1 })

	w.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after Stop")
	}

	// Enqueue after Stop is a documented no-op.
	w.Enqueue("ignored")
	if got := synth.getSpoken(); len(got) != 1 {
		t.Errorf("expected 1 spoken message, got %v", got)
	}

	// Stop is safe to call again.
	w.Stop()
}

func TestWorkerStopCancelsInFlight(t *testing.T) {
	synth := &recordingSynth{
		started: make(chan string, 1),
		release: make(chan struct{}),
	}
	w := NewWorker(synth, discardLogger())

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	w.Enqueue("endless")
	<-synth.started

	w.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the in-flight announcement")
	}
}

func TestWorkerLogsSynthesisFailure(t *testing.T) {
	synth := &recordingSynth{err: errors.New("no audio device")}
	w := NewWorker(synth, discardLogger())
	go w.Run()
	t.Cleanup(w.Stop)

	w.Enqueue("doomed")
	w.Enqueue("doomed too")

	// Failures must not kill the consumer; both messages are attempted.
	time.Sleep(50 * time.Millisecond)
	w.Enqueue("still alive")
	time.Sleep(50 * time.Millisecond)
}

func TestCommandSynthesizerParsing(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		wantName string
		wantArgs []string
	}{
		{
			name:     "bare command",
			command:  "espeak",
			wantName: "espeak",
		},
		{
			name:     "command with flags",
			command:  "espeak -s 150 -v en",
			wantName: "espeak",
			wantArgs: []string{"-s", "150", "-v", "en"},
		},
		{
			name:     "empty falls back to default",
			command:  "",
			wantName: "espeak",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCommandSynthesizer(tt.command)
			if s.name != tt.wantName {
				t.Errorf("name = %q, want %q", s.name, tt.wantName)
			}
			if diff := cmp.Diff(tt.wantArgs, s.args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
