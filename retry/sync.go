package retry

import (
	"context"
	"time"
)

// SyncTask is a blocking unit of work retried by ExecuteSync/ExecuteAsync.
type SyncTask func() error

type SyncOptions func(*syncOptions)

type syncOptions struct {
	maxRetries int
	retryDelay time.Duration
}

func defaultSyncOpts() *syncOptions {
	return &syncOptions{
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}
}

func WithSyncMaxRetries(maxRetries int) SyncOptions {
	return func(o *syncOptions) {
		o.maxRetries = maxRetries
	}
}

func WithSyncRetryDelay(retryDelay time.Duration) SyncOptions {
	return func(o *syncOptions) {
		o.retryDelay = retryDelay
	}
}

// ExecuteSync runs task, retrying with a fixed delay between attempts,
// until it succeeds, the context is cancelled, or the retry budget is
// exhausted. The last error is returned on exhaustion; a context error is
// returned immediately if the context is cancelled while waiting to retry.
func ExecuteSync(ctx context.Context, task SyncTask, opts ...SyncOptions) error {
	conf := defaultSyncOpts()
	for _, opt := range opts {
		opt(conf)
	}

	var err error
	for attempt := 0; attempt < conf.maxRetries; attempt++ {
		if err = task(); err == nil {
			return nil
		}

		if attempt < conf.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(conf.retryDelay):
			}
		}
	}

	return err
}
