package testutil

import (
	"context"
	"sync"

	"github.com/vk/axisem/internal/comm"
	"github.com/vk/axisem/internal/resources"
)

// BankRecorder collects resource manager events.
type BankRecorder struct {
	mu     sync.Mutex
	events []resources.Event
}

// Observe is a resources.Observer.
func (r *BankRecorder) Observe(e resources.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *BankRecorder) Events() []resources.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]resources.Event(nil), r.events...)
}

// Count returns the number of op events per bank.
func (r *BankRecorder) Count(op resources.Op) map[string]int {
	out := make(map[string]int)
	for _, e := range r.Events() {
		if e.Op == op {
			out[e.Bank]++
		}
	}
	return out
}

// RecordingComm wraps a communicator and counts the collective calls made
// through it.
type RecordingComm struct {
	comm.Communicator

	mu        sync.Mutex
	barriers  int
	aborts    []error
	finalizes int
}

// Record wraps c.
func Record(c comm.Communicator) *RecordingComm {
	return &RecordingComm{Communicator: c}
}

func (r *RecordingComm) Barrier(ctx context.Context) error {
	r.mu.Lock()
	r.barriers++
	r.mu.Unlock()
	return r.Communicator.Barrier(ctx)
}

func (r *RecordingComm) Abort(err error) {
	r.mu.Lock()
	r.aborts = append(r.aborts, err)
	r.mu.Unlock()
	r.Communicator.Abort(err)
}

func (r *RecordingComm) Finalize(ctx context.Context) error {
	r.mu.Lock()
	r.finalizes++
	r.mu.Unlock()
	return r.Communicator.Finalize(ctx)
}

// Barriers returns the number of Barrier calls.
func (r *RecordingComm) Barriers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.barriers
}

// Aborts returns the errors passed to Abort.
func (r *RecordingComm) Aborts() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.aborts...)
}

// Finalizes returns the number of Finalize calls.
func (r *RecordingComm) Finalizes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalizes
}
