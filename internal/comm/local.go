package comm

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LocalWorld is a world whose ranks are goroutines of one process.
type LocalWorld struct {
	size int
	exit ExitFunc

	mu       sync.Mutex
	arrived  int
	released chan struct{}

	abortOnce sync.Once
	aborted   chan struct{}
	abortErr  *AbortError
	aborts    int

	finalized int
}

// LocalOption configures a LocalWorld.
type LocalOption func(*LocalWorld)

// WithExit sets the hook run once when the world aborts. By default a
// LocalWorld does not exit the process.
func WithExit(exit ExitFunc) LocalOption {
	return func(w *LocalWorld) { w.exit = exit }
}

// NewLocalWorld creates a world of size ranks.
func NewLocalWorld(size int, opts ...LocalOption) (*LocalWorld, error) {
	if size < 1 {
		return nil, fmt.Errorf("comm: world size must be positive, got %d", size)
	}
	w := &LocalWorld{
		size:     size,
		released: make(chan struct{}),
		aborted:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Size returns the number of ranks.
func (w *LocalWorld) Size() int { return w.size }

// Rank returns the communicator of rank r.
func (w *LocalWorld) Rank(r int) Communicator {
	return &localRank{world: w, rank: r}
}

// Run runs fn once per rank concurrently and returns the first error.
func (w *LocalWorld) Run(ctx context.Context, fn func(ctx context.Context, c Communicator) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for r := range w.size {
		c := w.Rank(r)
		g.Go(func() error { return fn(ctx, c) })
	}
	return g.Wait()
}

// Aborted returns the abort that ended the world, or nil.
func (w *LocalWorld) Aborted() *AbortError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.abortErr
}

// Aborts returns how many aborts took effect. It is at most one.
func (w *LocalWorld) Aborts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.aborts
}

// Finalized returns how many ranks finalized.
func (w *LocalWorld) Finalized() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finalized
}

func (w *LocalWorld) barrier(ctx context.Context) error {
	w.mu.Lock()
	if w.abortErr != nil {
		w.mu.Unlock()
		return w.abortErr
	}
	release := w.released
	w.arrived++
	if w.arrived == w.size {
		w.arrived = 0
		w.released = make(chan struct{})
		close(release)
	}
	w.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-w.aborted:
		return w.Aborted()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *LocalWorld) abort(rank int, err error) {
	w.abortOnce.Do(func() {
		msg := "unknown error"
		if err != nil {
			msg = err.Error()
		}
		w.mu.Lock()
		w.abortErr = &AbortError{Rank: rank, Message: msg}
		w.aborts++
		w.mu.Unlock()
		close(w.aborted)
		if w.exit != nil {
			w.exit(AbortExitCode)
		}
	})
}

type localRank struct {
	world *LocalWorld
	rank  int
}

func (c *localRank) Rank() int { return c.rank }
func (c *localRank) Size() int { return c.world.size }

func (c *localRank) Barrier(ctx context.Context) error {
	return c.world.barrier(ctx)
}

func (c *localRank) Abort(err error) {
	c.world.abort(c.rank, err)
}

func (c *localRank) Finalize(ctx context.Context) error {
	if err := c.world.barrier(ctx); err != nil {
		return err
	}
	c.world.mu.Lock()
	c.world.finalized++
	c.world.mu.Unlock()
	return nil
}
