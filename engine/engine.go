// Package engine wires config, the extension registry, and the channel
// manager into the four lifecycle hooks an external listener drives:
// OnConnect, OnSetup, OnCleanup, OnStop (spec.md §6).
package engine

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/ezex-io/podchannel/channel"
	"github.com/ezex-io/podchannel/config"
	"github.com/ezex-io/podchannel/endpoint"
	"github.com/ezex-io/podchannel/extension"
	"github.com/ezex-io/podchannel/logger"
	"github.com/ezex-io/podchannel/middleware"
	"github.com/ezex-io/podchannel/scheduler"
)

// Engine owns one extension manager and one channel manager over a fixed
// configuration, and tracks whether it is mid-stop so new connections can
// be rejected instead of handed to a fleet that is already tearing down.
type Engine struct {
	cfg        config.Config
	extensions *extension.Manager
	channels   *channel.Manager

	stopped  atomic.Bool
	stopping atomic.Bool
}

// New builds an Engine from cfg, loading mw's middleware chain and ext's
// extension registry into it.
func New(ctx context.Context, cfg config.Config, mw *middleware.Manager, ext *extension.Manager) *Engine {
	return &Engine{
		cfg:        cfg,
		extensions: ext,
		channels:   channel.NewManager(ctx, cfg, mw),
	}
}

// Channels exposes the channel manager for callers that need its
// lifecycle event bus.
func (e *Engine) Channels() *channel.Manager {
	return e.channels
}

// Extensions exposes the extension registry, e.g. so a middleware
// constructor closure can look up the built-in Dialer by name.
func (e *Engine) Extensions() *extension.Manager {
	return e.extensions
}

// OnSetup arms the extension registry, then the middleware chain, mirroring
// the source's on_setup ordering (extensions first, since middleware may
// depend on an extension being ready).
func (e *Engine) OnSetup() {
	e.extensions.Setup()
	e.channels.Setup()
}

// OnCleanup tears down in the reverse of OnSetup's order.
func (e *Engine) OnCleanup() {
	e.channels.Cleanup()
	e.extensions.Cleanup()
}

// OnStop marks the engine stopping, closes the fleet bounded by the
// configured CloseWait, then marks it stopped. stopping is never reset
// back to false: stopped.Store(true) is what OnConnect relies on from
// this point forward, and leaving stopping set avoids a window where a
// concurrent OnConnect could read stopping==false and stopped==false at
// once, after the channel manager's own closing flag is already
// permanently latched.
func (e *Engine) OnStop() error {
	e.stopping.Store(true)

	warnCtx, cancelWarn := context.WithCancel(context.Background())
	defer cancelWarn()

	if e.cfg.CloseWait != nil {
		scheduler.After(warnCtx, *e.cfg.CloseWait/2).Do(func(context.Context) {
			logger.Warn("graceful shutdown still in progress", "close_wait", *e.cfg.CloseWait)
		})
	}

	err := e.channels.Close(e.cfg.CloseWait)

	e.stopped.Store(true)

	return err
}

// OnConnect wraps conn as the frontend endpoint and transports it,
// backend unknown until a middleware calls SetBackend. Connections
// arriving after OnStop or during OnStop's close are force-closed instead
// of handed to the channel manager. A connection that still slips past
// this guard and is rejected by the channel manager itself (closing is
// latched first) is force-closed too, rather than left as a leaked,
// never-closed socket.
func (e *Engine) OnConnect(ctx context.Context, conn net.Conn) {
	ep := endpoint.New(conn)

	if e.stopped.Load() || e.stopping.Load() {
		e.forceCloseEndpoint(ep)

		return
	}

	if err := e.channels.Transport(ctx, ep, endpoint.Null); err != nil {
		logger.Debug("channel transport ended with error", "error", err)

		if !ep.Closed() {
			e.forceCloseEndpoint(ep)
		}
	}
}

func (e *Engine) forceCloseEndpoint(ep endpoint.Endpoint) {
	logger.Warn("force closing endpoint, engine is stopping", "peer", ep.ExtraInfo("peername"))

	if err := ep.Close(); err != nil {
		logger.Error("force close failed", "error", err)
	}
}
