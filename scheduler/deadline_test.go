package scheduler_test

import (
	"testing"
	"time"

	"github.com/ezex-io/podchannel/scheduler"
	"github.com/stretchr/testify/assert"
)

func TestDeadlineTimerFires(t *testing.T) {
	d := scheduler.NewDeadlineTimer()

	fired := make(chan struct{})
	d.Schedule(time.Now().Add(5*time.Millisecond), func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for deadline timer to fire")
	}
}

func TestDeadlineTimerCancel(t *testing.T) {
	d := scheduler.NewDeadlineTimer()

	fired := make(chan struct{})
	d.Schedule(time.Now().Add(20*time.Millisecond), func() {
		close(fired)
	})
	d.Cancel()

	select {
	case <-fired:
		t.Fatal("cancelled deadline timer should not fire")
	case <-time.After(40 * time.Millisecond):
	}
}

func TestDeadlineTimerKeepsEarlierDeadline(t *testing.T) {
	d := scheduler.NewDeadlineTimer()

	var fired int
	done := make(chan struct{})
	d.Schedule(time.Now().Add(10*time.Millisecond), func() {
		fired = 1
		close(done)
	})
	// A later deadline must not displace the earlier, already-armed one.
	d.Schedule(time.Now().Add(time.Hour), func() {
		fired = 2
	})

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for earlier deadline to fire")
	}

	assert.Equal(t, 1, fired)
}

func TestDeadlineTimerReplacesLaterDeadline(t *testing.T) {
	d := scheduler.NewDeadlineTimer()

	d.Schedule(time.Now().Add(time.Hour), func() {})

	fired := make(chan struct{})
	// A tighter deadline must cancel and replace the far-future one.
	d.Schedule(time.Now().Add(5*time.Millisecond), func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for tighter deadline to fire")
	}
}
