package channel

import (
	"context"
	"sync"
	"time"

	"github.com/ezex-io/podchannel/config"
	"github.com/ezex-io/podchannel/endpoint"
	"github.com/ezex-io/podchannel/errors"
	"github.com/ezex-io/podchannel/middleware"
	"github.com/ezex-io/podchannel/pipeline"
	"golang.org/x/sync/errgroup"
)

// ManagerEventType tags a channel manager lifecycle notification.
type ManagerEventType string

const (
	ManagerEventChannelCreated ManagerEventType = "channel_created"
	ManagerEventChannelClosed  ManagerEventType = "channel_closed"
)

// ManagerEvent is one fleet-level lifecycle notification, published on the
// manager's event bus for observers such as metrics or logging middleware
// that care about the fleet as a whole rather than one channel's trace.
type ManagerEvent struct {
	Type ManagerEventType
	Time time.Time
}

// Manager owns the set of live channels and coordinates a graceful,
// bounded shutdown of the whole fleet, per spec.md §4.5.
type Manager struct {
	mu       sync.Mutex
	channels map[*channelImpl]struct{}
	closing  bool

	cfg config.Config
	mw  *middleware.Manager
	bus pipeline.Pipeline[ManagerEvent]
}

// NewManager returns a Manager bound to cfg's channel-class/close-mode
// settings and mw's loaded middleware chain.
func NewManager(ctx context.Context, cfg config.Config, mw *middleware.Manager) *Manager {
	return &Manager{
		channels: make(map[*channelImpl]struct{}),
		cfg:      cfg,
		mw:       mw,
		bus:      pipeline.New[ManagerEvent](ctx, pipeline.WithName("channel-manager")),
	}
}

// Events exposes the manager's lifecycle event bus so callers can observe
// channel creation/teardown without polling.
func (m *Manager) Events() pipeline.Pipeline[ManagerEvent] {
	return m.bus
}

func (m *Manager) publish(t ManagerEventType) {
	m.bus.Send(ManagerEvent{Type: t, Time: time.Now()})
}

// NewChannel constructs and registers a channel for frontend, selecting
// the startup variant per cfg.ChannelClass. It fails once the manager is
// closing, matching the source's "no new channels after close()" rule.
func (m *Manager) NewChannel(frontend endpoint.Endpoint) (Channel, error) {
	m.mu.Lock()

	if m.closing {
		m.mu.Unlock()

		return nil, errors.ErrClosing
	}

	var ch *channelImpl
	if m.cfg.ChannelClass == config.ChannelClassParallelStart {
		ch = newChannel(frontend, m.cfg.ReadMax, m.mw, m.cfg.CloseChannelMode, m.cfg.Debug, true)
	} else {
		ch = newChannel(frontend, m.cfg.ReadMax, m.mw, m.cfg.CloseChannelMode, m.cfg.Debug, false)
	}

	m.channels[ch] = struct{}{}
	m.mu.Unlock()

	m.publish(ManagerEventChannelCreated)

	return ch, nil
}

// Transport creates a channel for frontend/backend and runs it to
// completion, then closes it with the configured CloseWait deadline.
// backend may be endpoint.Null, in which case a middleware is expected to
// call SetBackend during the transport.
func (m *Manager) Transport(ctx context.Context, frontend, backend endpoint.Endpoint) error {
	ch, err := m.NewChannel(frontend)
	if err != nil {
		return err
	}

	impl := ch.(*channelImpl)

	if endpoint.Present(backend) {
		if err := ch.SetBackend(backend); err != nil {
			return err
		}
	}

	defer func() { _ = m.closeChannel(impl, m.cfg.CloseWait) }()

	return ch.Transport(ctx)
}

func (m *Manager) closeChannel(ch *channelImpl, timeout *time.Duration) error {
	m.mu.Lock()
	_, ok := m.channels[ch]
	delete(m.channels, ch)
	m.mu.Unlock()

	if !ok {
		return nil
	}

	err := ch.Close(timeout)
	m.publish(ManagerEventChannelClosed)

	return err
}

// Close marks the manager closing (rejecting further NewChannel calls)
// and closes every live channel concurrently, each bounded by timeout. A
// single channel's close failure does not prevent the others from being
// closed — this is why a plain errgroup.Group is used here rather than
// errgroup's WithContext form, which would cancel every sibling on the
// first error.
func (m *Manager) Close(timeout *time.Duration) error {
	m.mu.Lock()
	m.closing = true

	chans := make([]*channelImpl, 0, len(m.channels))
	for ch := range m.channels {
		chans = append(chans, ch)
	}
	m.mu.Unlock()

	g := new(errgroup.Group)

	for _, ch := range chans {
		ch := ch

		g.Go(func() error {
			return m.closeChannel(ch, timeout)
		})
	}

	err := g.Wait()

	m.bus.Close()

	return err
}

// Setup runs the loaded middleware chain's Setup hooks.
func (m *Manager) Setup() {
	m.mw.Setup()
}

// Cleanup runs the loaded middleware chain's Cleanup hooks.
func (m *Manager) Cleanup() {
	m.mw.Cleanup()
}
