package tokenization

import (
	"context"
	"fmt"
	"sync/atomic"

	tapErrors "gosell/internal/errors"

	log "github.com/sirupsen/logrus"
)

// State is the lifecycle position of a single request.
type State int32

const (
	StateCreated State = iota
	StateValidating
	StateEncoding
	StateDispatched
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateValidating:
		return "validating"
	case StateEncoding:
		return "encoding"
	case StateDispatched:
		return "dispatched"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Executor runs completion functions. The default runs them inline on the
// goroutine that finished the request.
type Executor func(fn func())

func inlineExecutor(fn func()) { fn() }

// Call is the handle of one in-flight request.
type Call struct {
	id        string
	operation string

	state    atomic.Int32
	finished atomic.Bool
	done     chan struct{}

	stop     context.CancelFunc
	onCancel func()
	exec     Executor
	logger   log.FieldLogger
}

func newCall[T any](ctx context.Context, c *Client, operation string, done func(*T, error)) (*Call, context.Context) {
	if done == nil {
		done = func(*T, error) {}
	}
	ctx, stop := context.WithCancel(ctx)

	call := &Call{
		id:        c.newID(),
		operation: operation,
		done:      make(chan struct{}),
		stop:      stop,
		exec:      c.executor,
	}
	call.logger = c.logger.WithFields(log.Fields{
		"request_id": call.id,
		"operation":  operation,
	})
	call.onCancel = func() {
		done(nil, tapErrors.NewNetworkError(tapErrors.NetworkCancelled, context.Canceled))
	}
	return call, ctx
}

// ID is the request id sent as X-Request-ID.
func (c *Call) ID() string { return c.id }

func (c *Call) State() State { return State(c.state.Load()) }

// Done is closed once the completion function has returned.
func (c *Call) Done() <-chan struct{} { return c.done }

// Wait blocks until the completion function has returned.
func (c *Call) Wait() { <-c.done }

// Cancel abandons the request. If no outcome was delivered yet the
// completion receives a cancelled network error and any response that
// arrives later is dropped. Cancelling a finished call does nothing.
func (c *Call) Cancel() {
	c.stop()
	if c.complete(StateFailed, c.onCancel) {
		c.logger.Info("request cancelled")
	}
}

func (c *Call) advance(s State) {
	c.state.Store(int32(s))
	c.logger.WithField("state", s).Debug("request state changed")
}

// complete delivers an outcome unless one was already delivered. It
// reports whether this outcome won. Losers return immediately, so the
// completion function may cancel its own call.
func (c *Call) complete(s State, deliver func()) bool {
	if !c.finished.CompareAndSwap(false, true) {
		return false
	}
	c.state.Store(int32(s))
	c.exec(func() {
		defer close(c.done)
		defer c.stop()
		defer func() {
			if r := recover(); r != nil {
				c.logger.WithField("panic", r).Error("completion function panicked")
			}
		}()
		deliver()
	})
	return true
}

func succeed[T any](call *Call, done func(*T, error), v *T) bool {
	return call.complete(StateSucceeded, func() {
		if done != nil {
			done(v, nil)
		}
	})
}

func fail[T any](call *Call, done func(*T, error), err *tapErrors.TapError) bool {
	return call.complete(StateFailed, func() {
		if done != nil {
			done(nil, err)
		}
	})
}
