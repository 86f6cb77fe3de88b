package comm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/axisem/internal/ctxlog"
)

// DialTimeout bounds how long Dial waits for the whole world to join.
const DialTimeout = 30 * time.Second

// abortGrace bounds how long Abort waits for the hub to echo the abort
// before exiting.
const abortGrace = 5 * time.Second

// SocketWorld is a rank connected to a socket.io hub.
type SocketWorld struct {
	rank, size int
	io         *socket.Socket
	hub        *Hub
	exit       ExitFunc
	logger     *slog.Logger

	mu       sync.Mutex
	epoch    int
	released int
	wake     chan struct{}
	abortErr *AbortError
	aborted  chan struct{}
	final    chan struct{}

	abortOnce sync.Once
	exitOnce  sync.Once
}

// SocketOption configures a SocketWorld.
type SocketOption func(*SocketWorld)

// WithSocketExit replaces os.Exit as the abort hook.
func WithSocketExit(exit ExitFunc) SocketOption {
	return func(w *SocketWorld) { w.exit = exit }
}

// WithHub hands the hub to rank 0 so Finalize can stop it.
func WithHub(h *Hub) SocketOption {
	return func(w *SocketWorld) { w.hub = h }
}

// Dial connects rank to the hub at rawURL and waits until every rank of
// the world has joined.
func Dial(ctx context.Context, rawURL string, rank, size int, opts ...SocketOption) (*SocketWorld, error) {
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("comm: rank %d outside world of size %d", rank, size)
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	w := &SocketWorld{
		rank:    rank,
		size:    size,
		exit:    OSExit,
		logger:  ctxlog.FromContext(ctx).With("component", "socket_world"),
		wake:    make(chan struct{}),
		aborted: make(chan struct{}),
		final:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	sopts.SetTransports(types.NewSet(transports.WebSocket))
	sopts.SetReconnection(false)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	w.io = manager.Socket("/", sopts)

	joined := make(chan error, 1)
	report := func(err error) {
		select {
		case joined <- err:
		default:
		}
	}
	w.io.Once(eventReady, func(...any) {
		report(nil)
	})
	w.io.Once(eventReject, func(args ...any) {
		report(fmt.Errorf("hub rejected rank %d: %v", rank, fmt.Sprint(args...)))
	})
	w.io.Once("connect_error", func(errs ...any) {
		err, ok := errs[0].(error)
		if !ok {
			err = fmt.Errorf("%v", errs[0])
		}
		report(fmt.Errorf("socket.io connection failed: %w", err))
	})
	w.io.On("connect", func(...any) {
		w.logger.Debug("Connected to hub.", "sid", w.io.Id(), "rank", rank)
		w.io.Emit(eventHello, map[string]any{"rank": rank})
	})
	w.io.On(eventRelease, w.onRelease)
	w.io.On(eventAbort, w.onAbort)
	w.io.On(eventFinalized, func(...any) { close(w.final) })

	w.io.Connect()

	select {
	case err := <-joined:
		if err != nil {
			w.io.Disconnect()
			return nil, err
		}
		return w, nil
	case <-ctx.Done():
		w.io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for the world to join: %w", ctx.Err())
	case <-time.After(DialTimeout):
		w.io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for the world to join", DialTimeout)
	}
}

func (w *SocketWorld) Rank() int { return w.rank }
func (w *SocketWorld) Size() int { return w.size }

func (w *SocketWorld) onRelease(args ...any) {
	var epoch float64
	if len(args) > 0 {
		if m, ok := args[0].(map[string]any); ok {
			epoch, _ = m["epoch"].(float64)
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if int(epoch) > w.released {
		w.released = int(epoch)
		close(w.wake)
		w.wake = make(chan struct{})
	}
}

func (w *SocketWorld) onAbort(args ...any) {
	msg, err := decodeMessage(args)
	if err != nil {
		msg = message{Rank: -1, Message: "abort without reason"}
	}
	w.mu.Lock()
	first := w.abortErr == nil
	if first {
		w.abortErr = &AbortError{Rank: msg.Rank, Message: msg.Message}
		close(w.aborted)
	}
	w.mu.Unlock()

	if first && msg.Rank != w.rank {
		w.logger.Error("World aborted by another rank.", "rank", msg.Rank, "reason", msg.Message)
		w.terminate()
	}
}

func (w *SocketWorld) terminate() {
	w.exitOnce.Do(func() { w.exit(AbortExitCode) })
}

func (w *SocketWorld) abortError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.abortErr == nil {
		return nil
	}
	return w.abortErr
}

// Barrier implements Communicator.
func (w *SocketWorld) Barrier(ctx context.Context) error {
	w.mu.Lock()
	if w.abortErr != nil {
		w.mu.Unlock()
		return w.abortErr
	}
	w.epoch++
	epoch := w.epoch
	w.mu.Unlock()

	w.io.Emit(eventBarrier, map[string]any{"rank": w.rank, "epoch": epoch})

	for {
		w.mu.Lock()
		if w.released >= epoch {
			w.mu.Unlock()
			return nil
		}
		wake := w.wake
		w.mu.Unlock()

		select {
		case <-wake:
		case <-w.aborted:
			return w.abortError()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Abort implements Communicator. It tells the hub, waits briefly for the
// broadcast to come back, then runs the exit hook.
func (w *SocketWorld) Abort(err error) {
	w.abortOnce.Do(func() {
		reason := "unknown error"
		if err != nil {
			reason = err.Error()
		}
		w.io.Emit(eventAbort, map[string]any{"rank": w.rank, "message": reason})
		select {
		case <-w.aborted:
		case <-time.After(abortGrace):
			w.logger.Warn("Hub did not confirm the abort.", "rank", w.rank)
		}
		w.terminate()
	})
}

// Finalize implements Communicator. It waits for every rank, disconnects,
// and on rank 0 stops the hub.
func (w *SocketWorld) Finalize(ctx context.Context) error {
	if err := w.abortError(); err != nil {
		return err
	}
	w.io.Emit(eventFinalize, map[string]any{"rank": w.rank})

	var err error
	select {
	case <-w.final:
	case <-w.aborted:
		err = w.abortError()
	case <-ctx.Done():
		err = ctx.Err()
	}
	w.io.Disconnect()
	if w.hub != nil {
		err = errors.Join(err, w.hub.Close(ctx))
	}
	return err
}
