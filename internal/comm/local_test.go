package comm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalWorldBarrier(t *testing.T) {
	w, err := NewLocalWorld(4)
	require.NoError(t, err)

	var arrivals [3]atomic.Int32
	err = w.Run(context.Background(), func(ctx context.Context, c Communicator) error {
		for round := range arrivals {
			arrivals[round].Add(1)
			if err := c.Barrier(ctx); err != nil {
				return err
			}
			if n := arrivals[round].Load(); n != 4 {
				return fmt.Errorf("left barrier %d with %d arrivals", round, n)
			}
		}
		return c.Finalize(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, w.Finalized())
	assert.Equal(t, 0, w.Aborts())
}

func TestLocalWorldAbort(t *testing.T) {
	var exits []int
	w, err := NewLocalWorld(3, WithExit(func(code int) { exits = append(exits, code) }))
	require.NoError(t, err)

	boom := errors.New("mesh exploded")
	err = w.Run(context.Background(), func(ctx context.Context, c Communicator) error {
		if c.Rank() == 1 {
			c.Abort(boom)
			c.Abort(errors.New("again"))
			return boom
		}
		err := c.Barrier(ctx)
		if err == nil {
			return errors.New("barrier passed after abort")
		}
		c.Abort(err)
		return err
	})
	require.Error(t, err)

	assert.Equal(t, 1, w.Aborts())
	assert.Equal(t, []int{AbortExitCode}, exits)
	require.NotNil(t, w.Aborted())
	assert.Equal(t, 1, w.Aborted().Rank)
	assert.Equal(t, "mesh exploded", w.Aborted().Message)
	assert.ErrorIs(t, w.Aborted(), ErrAborted)

	assert.ErrorIs(t, w.Rank(0).Barrier(context.Background()), ErrAborted)
}

func TestLocalWorldBarrierContext(t *testing.T) {
	w, err := NewLocalWorld(2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Rank(0).Barrier(ctx), context.DeadlineExceeded)
}

func TestNewLocalWorldSize(t *testing.T) {
	_, err := NewLocalWorld(0)
	assert.Error(t, err)

	w, err := NewLocalWorld(1)
	require.NoError(t, err)
	assert.True(t, IsRoot(w.Rank(0)))
	assert.Equal(t, 1, w.Rank(0).Size())
}
