package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ezex-io/podchannel/retry"
	"github.com/stretchr/testify/assert"
)

func TestExecuteAsyncSucceeds(t *testing.T) {
	done := make(chan struct{})
	attempts := 0

	retry.ExecuteAsync(t.Context(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("not yet")
		}
		close(done)

		return nil
	}, func(error) { t.Fatal("onFailure should not be called") },
		retry.WithAsyncRetryDelay(time.Millisecond))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not succeed in time")
	}
}

func TestExecuteAsyncCallsOnFailureAfterExhaustion(t *testing.T) {
	failed := make(chan error, 1)

	retry.ExecuteAsync(t.Context(), func() error {
		return errors.New("always fails")
	}, func(err error) { failed <- err },
		retry.WithAsyncMaxRetries(2), retry.WithAsyncRetryDelay(time.Millisecond))

	select {
	case err := <-failed:
		assert.EqualError(t, err, "always fails")
	case <-time.After(time.Second):
		t.Fatal("onFailure was not called")
	}
}

func TestExecuteAsyncStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	failed := make(chan error, 1)

	retry.ExecuteAsync(ctx, func() error {
		cancel()

		return errors.New("nope")
	}, func(err error) { failed <- err },
		retry.WithAsyncMaxRetries(5), retry.WithAsyncRetryDelay(time.Hour))

	select {
	case err := <-failed:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("onFailure was not called")
	}
}
