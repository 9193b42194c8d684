// Package middleware implements the ordered per-chunk hook pipeline a
// channel runs every byte chunk through in each direction, per spec.md
// §4.2. A middleware is any value implementing one or more of the
// optional Forwarder/Backwarder/CloseHook/Setupper/Cleanupper interfaces —
// Go's analogue of the source's "hooks not overridden are not
// registered" rule: there is no method to not-override, you simply don't
// implement the interface.
package middleware

import "github.com/ezex-io/podchannel/endpoint"

// Conn is the minimal per-channel surface exposed to middleware hooks.
// Keeping it narrow (rather than importing the channel package directly)
// avoids a middleware<->channel import cycle and lets a hook do exactly
// what the handshake-bypass scenario needs: inspect the connection and,
// once it knows the real peer, call SetBackend.
type Conn interface {
	// SetBackend installs the channel's backend endpoint. Must be called
	// at most once; a second call is a programming error.
	SetBackend(e endpoint.Endpoint) error

	// Backend returns the channel's current backend endpoint (endpoint.Null
	// if none has been set yet).
	Backend() endpoint.Endpoint

	// Extra exposes opaque per-channel metadata (e.g. the frontend's
	// peer address) to hooks that need it for logging or policy.
	Extra(key string) any
}

// Forwarder handles bytes travelling frontend->backend. Returning a nil
// (or empty) slice with a nil error drops the chunk.
type Forwarder interface {
	Forward(c Conn, data []byte) ([]byte, error)
}

// Backwarder handles bytes travelling backend->frontend.
type Backwarder interface {
	Backward(c Conn, data []byte) ([]byte, error)
}

// CloseHook observes channel teardown. Errors are logged, not propagated.
type CloseHook interface {
	Close(c Conn) error
}

// Setupper runs once from Manager.Setup, after Load has already registered
// the middleware's hooks. A returning error drops this middleware, hooks
// included, from the chain.
type Setupper interface {
	Setup() error
}

// Cleanupper runs once at engine cleanup, in reverse chain order.
type Cleanupper interface {
	Cleanup() error
}

// Constructor builds a middleware instance from its configured options
// (every MiddlewareConfig key except Class/ID). Registered ahead of time
// by name — Go's stand-in for the source's dynamic class-path loading.
type Constructor func(options map[string]string) (any, error)
