package voice

import (
	"context"
	"sync"
)

// Completion is a one-shot signal settled exactly once, either with success or
// with the error that aborted the run.
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewCompletion returns an unsettled completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Complete settles the completion successfully. It reports whether this call settled it.
func (c *Completion) Complete() bool {
	return c.settle(nil)
}

// Fail settles the completion with err. It reports whether this call settled it.
func (c *Completion) Fail(err error) bool {
	return c.settle(err)
}

func (c *Completion) settle(err error) bool {
	settled := false
	c.once.Do(func() {
		c.err = err
		settled = true
		close(c.done)
	})
	return settled
}

// Done is closed once the completion is settled.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Settled reports whether Complete or Fail has been called.
func (c *Completion) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Err returns the failure, if any. It is only meaningful once Settled is true.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the completion is settled or ctx ends.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
