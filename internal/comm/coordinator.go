package comm

import (
	"fmt"
	"sync"
)

// coordinator is the bookkeeping behind the socket.io hub. It holds no
// network state so it can be tested on its own.
type coordinator struct {
	mu     sync.Mutex
	size   int
	joined map[int]bool

	epoch   int
	arrived map[int]bool

	aborted   bool
	finalized map[int]bool
}

func newCoordinator(size int) *coordinator {
	return &coordinator{
		size:      size,
		joined:    make(map[int]bool),
		arrived:   make(map[int]bool),
		finalized: make(map[int]bool),
	}
}

func (c *coordinator) checkRank(rank int) error {
	if rank < 0 || rank >= c.size {
		return fmt.Errorf("rank %d outside world of size %d", rank, c.size)
	}
	return nil
}

// join registers rank. It reports true once every rank has joined.
func (c *coordinator) join(rank int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkRank(rank); err != nil {
		return false, err
	}
	if c.joined[rank] {
		return false, fmt.Errorf("rank %d joined twice", rank)
	}
	c.joined[rank] = true
	return len(c.joined) == c.size, nil
}

// arrive records rank at barrier epoch. It reports true when the barrier
// completes.
func (c *coordinator) arrive(rank, epoch int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkRank(rank); err != nil {
		return false, err
	}
	if epoch != c.epoch+1 {
		return false, fmt.Errorf("rank %d at barrier %d, world at barrier %d", rank, epoch, c.epoch+1)
	}
	c.arrived[rank] = true
	if len(c.arrived) < c.size {
		return false, nil
	}
	c.epoch++
	c.arrived = make(map[int]bool)
	return true, nil
}

// abort reports true for the first abort only.
func (c *coordinator) abort() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.aborted {
		return false
	}
	c.aborted = true
	return true
}

// finalize reports true once every rank has finalized.
func (c *coordinator) finalize(rank int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkRank(rank); err != nil {
		return false, err
	}
	c.finalized[rank] = true
	return len(c.finalized) == c.size, nil
}
