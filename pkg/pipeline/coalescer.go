package pipeline

import (
	"context"
	"sync"
)

// Coalescer serializes pipeline runs so that only the newest request
// matters: starting a run cancels whichever run is still in flight. The
// interactive surfaces use this to drop stale re-renders when the user
// clicks faster than the pipeline draws.
type Coalescer struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Execute runs the pipeline on r, superseding any earlier run started
// through this coalescer. A superseded run observes its context cancellation
// at the next stage boundary and returns that error.
func (c *Coalescer) Execute(ctx context.Context, r *Runner, opts Options) (*Result, error) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.gen == gen {
			c.cancel = nil
		}
		c.mu.Unlock()
		cancel()
	}()

	return r.Execute(runCtx, opts)
}

// Cancel aborts the in-flight run, if any.
func (c *Coalescer) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
