package domain

import "sync"

// CancelToken records a user's intent to stop a job. It is polled at loop and
// per-domain boundaries and never interrupts an in-flight request.
type CancelToken struct {
	once sync.Once
	ch   chan struct{}
}

func NewCancelToken() *CancelToken {
	return &CancelToken{ch: make(chan struct{})}
}

// Cancel is safe to call more than once.
func (c *CancelToken) Cancel() {
	c.once.Do(func() { close(c.ch) })
}

func (c *CancelToken) Canceled() bool {
	if c == nil {
		return false
	}
	select {
	case <-c.ch:
		return true
	default:
		return false
	}
}

// Done is closed once Cancel has been called. A nil token never fires.
func (c *CancelToken) Done() <-chan struct{} {
	if c == nil {
		return nil
	}
	return c.ch
}

// Check returns ErrCanceled once the token has been canceled.
func (c *CancelToken) Check() error {
	if c.Canceled() {
		return ErrCanceled
	}
	return nil
}
