// Package failure turns a rank-local error into a collective abort.
//
// A Handler moves through Running → Reporting → Aborting → Terminated. The
// report goes to the rank stream with this rank as printer, so the failing
// rank's message is visible even though it is not the root. Cleanups run
// best-effort; their errors are reported, never returned. Nothing is
// retried.
package failure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/axisem/internal/comm"
	"github.com/vk/axisem/internal/ctxlog"
)

// State is the handler state.
type State int

const (
	Running State = iota
	Reporting
	Aborting
	Terminated
)

func (s State) String() string {
	return [...]string{"running", "reporting", "aborting", "terminated"}[s]
}

// Cleanup releases a resource during failure handling.
type Cleanup struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Handler is the per-rank failure handler.
type Handler struct {
	comm   comm.Communicator
	stream *comm.Stream

	mu       sync.Mutex
	state    State
	cleanups []Cleanup
	once     sync.Once
}

// New returns a handler that reports to stream and aborts through c.
func New(c comm.Communicator, stream *comm.Stream) *Handler {
	return &Handler{comm: c, stream: stream}
}

// OnFailure registers a cleanup. Cleanups run in reverse registration order.
func (h *Handler) OnFailure(name string, fn func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, Cleanup{Name: name, Fn: fn})
}

// State returns the current state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handler) set(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Handle reports err, runs the cleanups and aborts the world. Only the
// first call does anything.
func (h *Handler) Handle(ctx context.Context, err error) {
	h.once.Do(func() {
		logger := ctxlog.FromContext(ctx)
		rank := h.comm.Rank()

		h.set(Reporting)
		h.stream.SetPrinter(rank)
		h.stream.Printf("%s", Banner(rank, err))
		if ferr := h.stream.Flush(); ferr != nil {
			logger.Warn("Failed to flush failure report.", "error", ferr)
		}
		logger.Error("Rank failed.", "error", err)

		h.set(Aborting)
		h.mu.Lock()
		cleanups := h.cleanups
		h.mu.Unlock()
		for i := len(cleanups) - 1; i >= 0; i-- {
			c := cleanups[i]
			if cerr := c.Fn(ctx); cerr != nil {
				logger.Warn("Cleanup failed during abort.", "cleanup", c.Name, "error", cerr)
			}
		}

		h.comm.Abort(err)
		h.set(Terminated)
	})
}

// Banner formats the failure report for rank.
func Banner(rank int, err error) string {
	var sb strings.Builder
	title := fmt.Sprintf(" ERROR ON RANK %d ", rank)
	bar := strings.Repeat("=", 24)
	sb.WriteString("\n" + bar + title + bar + "\n")
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	sb.WriteString(msg + "\n")
	if errors.Is(err, comm.ErrAborted) {
		sb.WriteString("(aborted by another rank)\n")
	}
	sb.WriteString(bar + strings.Repeat("=", len(title)) + bar + "\n\n")
	return sb.String()
}
