// Package channel implements the per-connection relay state machine:
// two goroutines (forward, backward) driven by function-typed action
// slots, a deferred-cancel close, and the keyed channel manager that owns
// a fleet of these.
package channel

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/ezex-io/podchannel/config"
	"github.com/ezex-io/podchannel/endpoint"
	"github.com/ezex-io/podchannel/errors"
	"github.com/ezex-io/podchannel/logger"
	"github.com/ezex-io/podchannel/middleware"
	"github.com/ezex-io/podchannel/scheduler"
	"github.com/ezex-io/podchannel/util"
)

// Channel is a single bidirectional relay between a frontend and a
// backend endpoint. It satisfies middleware.Conn so hooks can inspect and
// complete it.
type Channel interface {
	middleware.Conn

	// Transport runs both directions to completion. It returns once the
	// channel has fully torn down (both directions finished and cleanup
	// ran); it does not return early just because ctx was cancelled —
	// callers that want a bounded wait should call Close separately.
	Transport(ctx context.Context) error

	// Close requests a graceful shutdown. If timeout is non-nil, any
	// direction still blocked in a read after timeout elapses is forced
	// to unblock; an earlier-scheduled deadline from a previous Close
	// call is never pushed later. Close blocks until Transport returns.
	Close(timeout *time.Duration) error

	// Connected reports whether a backend has been attached.
	Connected() bool

	// Closed reports whether Close has completed.
	Closed() bool

	// Events returns a snapshot of the channel's debug trace.
	Events() []Event

	// ID returns the channel's short random correlation identifier.
	ID() string
}

type channelImpl struct {
	id       string
	frontend endpoint.Endpoint
	readMax  int
	mw       *middleware.Manager
	events   *eventLog
	extra    map[string]any
	mode     config.CloseChannelMode

	mu         sync.Mutex
	backend    endpoint.Endpoint
	backendSet bool
	closed     bool

	connectedCh  chan struct{}
	connectOnce  sync.Once
	cancelOnce   sync.Once
	backwardOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	deadline *scheduler.DeadlineTimer

	wg             sync.WaitGroup
	forwardDoneCh  chan struct{}
	backwardDoneCh chan struct{}
	doneCh         chan struct{}

	parallelStart bool
}

func newChannel(frontend endpoint.Endpoint, readMax int, mw *middleware.Manager, mode config.CloseChannelMode, debug, parallelStart bool) *channelImpl {
	id, err := util.GenerateRandomCode(8, util.AlphaNumeric)
	if err != nil {
		id = "unidentified"
	}

	return &channelImpl{
		id:             id,
		frontend:       frontend,
		backend:        endpoint.Null,
		readMax:        readMax,
		mw:             mw,
		events:         newEventLog(debug),
		extra:          make(map[string]any),
		mode:           mode,
		connectedCh:    make(chan struct{}),
		deadline:       scheduler.NewDeadlineTimer(),
		forwardDoneCh:  make(chan struct{}),
		backwardDoneCh: make(chan struct{}),
		doneCh:         make(chan struct{}),
		parallelStart:  parallelStart,
	}
}

// NewSerialStart returns a channel whose backward task is started only
// once SetBackend has been called — the default variant, matching a
// handshake-terminating middleware that must see frontend bytes before it
// knows where the backend is.
func NewSerialStart(frontend endpoint.Endpoint, readMax int, mw *middleware.Manager, mode config.CloseChannelMode, debug bool) Channel {
	return newChannel(frontend, readMax, mw, mode, debug, false)
}

// NewParallelStart returns a channel whose backward task starts
// immediately alongside the forward task, parking on the connected signal
// until a backend is attached. Useful when the caller already knows it
// wants both directions live as soon as possible (e.g. a dumb proxy that
// dials the backend itself before transporting).
func NewParallelStart(frontend endpoint.Endpoint, readMax int, mw *middleware.Manager, mode config.CloseChannelMode, debug bool) Channel {
	return newChannel(frontend, readMax, mw, mode, debug, true)
}

func (c *channelImpl) SetBackend(e endpoint.Endpoint) error {
	c.mu.Lock()
	if c.backendSet {
		c.mu.Unlock()

		return errors.ErrBackendAlreadySet
	}

	c.backendSet = true
	c.backend = e
	c.mu.Unlock()

	c.events.save(EventBackendConnected, nil)
	c.markConnected()

	if !c.parallelStart {
		c.startBackward()
	}

	return nil
}

func (c *channelImpl) Backend() endpoint.Endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.backend
}

func (c *channelImpl) Extra(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.extra[key]
}

// SetExtra attaches opaque metadata (e.g. the frontend's peer address)
// retrievable by middleware via Extra. Nothing in this package calls it;
// Extra returns nil for any key that was never set.
func (c *channelImpl) SetExtra(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.extra[key] = value
}

func (c *channelImpl) Connected() bool {
	select {
	case <-c.connectedCh:
		return true
	default:
		return false
	}
}

func (c *channelImpl) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *channelImpl) Events() []Event {
	return c.events.Events()
}

// ID returns the channel's short random correlation identifier, useful
// for tying together log lines across its two goroutines.
func (c *channelImpl) ID() string {
	return c.id
}

func (c *channelImpl) markConnected() {
	c.connectOnce.Do(func() { close(c.connectedCh) })
}

func (c *channelImpl) startBackward() {
	c.backwardOnce.Do(func() {
		c.wg.Add(1)

		go c.runBackward()
	})
}

func (c *channelImpl) isCancelled(err error) bool {
	if c.ctx == nil {
		return false
	}

	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) || c.ctx.Err() != nil
}

func (c *channelImpl) recordActionError(err error) {
	var mwErr *errors.MiddlewareError
	if stderrors.As(err, &mwErr) {
		c.events.save(EventMiddlewareError, err)

		return
	}

	c.events.save(EventUnknownError, errors.Unknown(err))
}

func (c *channelImpl) Transport(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	defer c.cancel()

	c.events.save(EventFrontendConnected, nil)

	c.wg.Add(1)

	go c.runForward()

	if c.parallelStart {
		c.startBackward()
	}

	c.wg.Wait()

	c.transportCleanup()

	c.events.save(EventTransportFinished, nil)
	logger.Debug("channel transport finished", "channel_id", c.id)
	close(c.doneCh)

	return nil
}

func (c *channelImpl) transportCleanup() {
	if !c.frontend.Closed() {
		_ = c.frontend.Close()
		c.events.save(EventFrontendClose, nil)
	}

	if b := c.Backend(); !b.Closed() {
		_ = b.Close()
		c.events.save(EventBackendClose, nil)
	}

	c.mw.Close(c)
	c.events.save(EventCleanupFinished, nil)
}

func (c *channelImpl) runForward() {
	c.events.save(EventForwardTaskStart, nil)
	c.events.save(EventFrontendStartReading, nil)

	defer func() {
		if r := recover(); r != nil {
			c.events.save(EventForwardTaskError, panicError(r))
		} else if c.ctx.Err() != nil {
			c.events.save(EventForwardTaskCancelled, c.ctx.Err())
		} else {
			c.events.save(EventForwardTaskDone, nil)
		}

		close(c.forwardDoneCh)
		c.wg.Done()
	}()

	runActions(c.doBuildConnection)
}

func (c *channelImpl) runBackward() {
	c.events.save(EventBackwardTaskStart, nil)

	defer func() {
		if r := recover(); r != nil {
			c.events.save(EventBackwardTaskError, panicError(r))
		} else if c.ctx.Err() != nil {
			c.events.save(EventBackwardTaskCancelled, c.ctx.Err())
		} else {
			c.events.save(EventBackwardTaskDone, nil)
		}

		close(c.backwardDoneCh)
		c.wg.Done()
	}()

	runActions(c.doWaitConnection)
}

func (c *channelImpl) Close(timeout *time.Duration) error {
	if timeout == nil {
		c.cancelNow()
	} else {
		c.deadline.Schedule(time.Now().Add(*timeout), c.cancelNow)
	}

	<-c.doneCh

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return nil
}

// cancelNow forces both directions to unblock. close_channel_mode governs
// per-channel ordering: serial unblocks the frontend first and only
// unblocks the backend once the forward task has actually exited, so the
// backend never gets shut out from under a middleware hook still running
// forward; parallel unblocks both at once.
func (c *channelImpl) cancelNow() {
	c.cancelOnce.Do(func() {
		c.deadline.Cancel()

		if c.cancel != nil {
			c.cancel()
		}

		c.markConnected()

		c.frontend.Unblock()

		if c.mode == config.CloseChannelModeSerial {
			go func() {
				<-c.forwardDoneCh
				c.Backend().Unblock()
			}()

			return
		}

		c.Backend().Unblock()
	})
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return errors.Unknown(err)
	}

	return errors.Unknown(stderrors.New("panic in action"))
}
