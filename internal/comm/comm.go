package comm

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// AbortExitCode is the process exit code after a collective abort.
const AbortExitCode = 1

// ErrAborted is returned by collective operations after the world aborted.
var ErrAborted = errors.New("comm: world aborted")

// Communicator is one rank's handle on its world.
type Communicator interface {
	// Rank returns this rank's index in [0, Size).
	Rank() int
	// Size returns the number of ranks.
	Size() int
	// Barrier blocks until every rank has reached it.
	Barrier(ctx context.Context) error
	// Abort terminates the whole world with err as the reason. Only the
	// first call has any effect.
	Abort(err error)
	// Finalize ends communication after a successful run.
	Finalize(ctx context.Context) error
}

// ExitFunc terminates the process.
type ExitFunc func(code int)

// OSExit is the production exit hook.
var OSExit ExitFunc = os.Exit

// AbortError describes an abort raised by some rank.
type AbortError struct {
	Rank    int
	Message string
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("rank %d aborted: %s", e.Rank, e.Message)
}

// Unwrap makes AbortError match ErrAborted.
func (e *AbortError) Unwrap() error {
	return ErrAborted
}

// IsRoot reports whether c is rank 0.
func IsRoot(c Communicator) bool {
	return c.Rank() == 0
}
