package channel_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ezex-io/podchannel/channel"
	"github.com/ezex-io/podchannel/config"
	"github.com/ezex-io/podchannel/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerTransportPublishesLifecycleEvents(t *testing.T) {
	cfg := config.Default()
	mw := middleware.NewManager()
	mgr := channel.NewManager(t.Context(), cfg, mw)

	var mu sync.Mutex

	var seen []channel.ManagerEventType

	mgr.Events().RegisterReceiver(func(e channel.ManagerEvent) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	})

	frontOurs, frontTheirs := pipeEndpoints(t)
	backOurs, backTheirs := pipeEndpoints(t)

	done := make(chan error, 1)
	go func() { done <- mgr.Transport(t.Context(), frontOurs, backOurs) }()

	require.NoError(t, frontTheirsWrite(frontTheirs, []byte("ping")))
	readBuf := make([]byte, 64)
	n, err := readFull(backTheirs, readBuf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(readBuf[:n]))

	_ = frontTheirs.Close()
	_ = backTheirs.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("transport did not finish")
	}

	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, channel.ManagerEventChannelCreated)
	assert.Contains(t, seen, channel.ManagerEventChannelClosed)
}

func TestManagerRejectsNewChannelsAfterClose(t *testing.T) {
	cfg := config.Default()
	mw := middleware.NewManager()
	mgr := channel.NewManager(t.Context(), cfg, mw)

	require.NoError(t, mgr.Close(nil))

	frontOurs, _ := pipeEndpoints(t)
	_, err := mgr.NewChannel(frontOurs)
	assert.Error(t, err)
}

func TestManagerCloseTearsDownFleetConcurrently(t *testing.T) {
	cfg := config.Default()
	mw := middleware.NewManager()
	mgr := channel.NewManager(t.Context(), cfg, mw)

	const fleetSize = 5

	var wg sync.WaitGroup

	for i := 0; i < fleetSize; i++ {
		frontOurs, _ := pipeEndpoints(t)
		backOurs, _ := pipeEndpoints(t)

		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = mgr.Transport(t.Context(), frontOurs, backOurs)
		}()
	}

	time.Sleep(20 * time.Millisecond)

	timeout := 200 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- mgr.Close(&timeout) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fleet close did not complete within its own deadline")
	}

	wg.Wait()
}
