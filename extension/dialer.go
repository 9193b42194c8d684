package extension

import (
	"context"
	"net"
	"time"

	"github.com/ezex-io/podchannel/retry"
)

// Dialer wraps net.Dialer.DialContext with retry.ExecuteSync, each attempt
// bounded by the timeout passed to NewDialer. It is the consumer of the
// engine's dumb_connect_timeout key once a caller passes
// Config.DumbConnectTimeout to NewDialer; nothing in the module does that
// wiring itself. A middleware that terminates a handshake over the frontend
// looks this extension up by name and calls Dial to obtain the real
// backend connection before calling Channel.SetBackend.
type Dialer struct {
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	netDialer  net.Dialer
}

// NewDialer returns a Dialer bounded by timeout. A zero timeout means no
// bound is applied to an individual dial attempt.
func NewDialer(timeout time.Duration) *Dialer {
	return &Dialer{
		timeout:    timeout,
		maxRetries: 3,
		retryDelay: 200 * time.Millisecond,
	}
}

// Dial connects to network/address, retrying transient failures up to the
// configured budget, each attempt individually bounded by the dialer's
// timeout when one was configured.
func (d *Dialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	var conn net.Conn

	err := retry.ExecuteSync(ctx, func() error {
		c, err := d.dialOnce(ctx, network, address)
		if err != nil {
			return err
		}

		conn = c

		return nil
	}, retry.WithSyncMaxRetries(d.maxRetries), retry.WithSyncRetryDelay(d.retryDelay))
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// DialAsync is Dial's non-blocking counterpart: it runs the same retry
// budget on a background goroutine via retry.ExecuteAsync and reports the
// outcome through a callback instead of blocking the caller. This is for
// a middleware that wants to kick off a backend reconnect from inside a
// Forward/Backward hook without stalling the channel's read loop while
// the dial retries.
func (d *Dialer) DialAsync(ctx context.Context, network, address string, onConnected func(net.Conn), onFailure func(error)) {
	retry.ExecuteAsync(ctx, func() error {
		c, err := d.dialOnce(ctx, network, address)
		if err != nil {
			return err
		}

		onConnected(c)

		return nil
	}, onFailure, retry.WithAsyncMaxRetries(d.maxRetries), retry.WithAsyncRetryDelay(d.retryDelay))
}

func (d *Dialer) dialOnce(ctx context.Context, network, address string) (net.Conn, error) {
	dialCtx := ctx

	if d.timeout > 0 {
		var cancel context.CancelFunc

		dialCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	return d.netDialer.DialContext(dialCtx, network, address)
}
