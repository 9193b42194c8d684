package channel

import (
	"sync"
	"time"
)

// EventType tags a point in a channel's lifecycle. Each tag is a distinct
// named constant rather than a shared integer value, so there is no
// ambiguity between e.g. a forward-task-done and a backward-task-done
// event the way two enum members aliasing the same integer would read.
type EventType string

const (
	EventFrontendConnected    EventType = "frontend_connected"
	EventFrontendStartReading EventType = "frontend_start_reading"
	EventBackendConnected     EventType = "backend_connected"
	EventBackendStartReading  EventType = "backend_start_reading"
	EventBackendReadFinished  EventType = "backend_read_finished"
	EventFrontendClose        EventType = "frontend_close"
	EventFrontendReadFinished EventType = "frontend_read_finished"
	EventBackendClose         EventType = "backend_close"
	EventCleanupFinished      EventType = "cleanup_finished"
	EventTransportFinished    EventType = "transport_finished"

	EventFrontendReadTimeout EventType = "frontend_read_timeout"
	EventBackendReadTimeout  EventType = "backend_read_timeout"
	EventFrontendReadError   EventType = "frontend_read_error"
	EventBackendReadError    EventType = "backend_read_error"
	EventFrontendWriteError  EventType = "frontend_write_error"
	EventBackendWriteError   EventType = "backend_write_error"
	EventFrontendCloseError  EventType = "frontend_close_error"
	EventBackendCloseError   EventType = "backend_close_error"

	EventForwardTaskStart     EventType = "forward_task_start"
	EventForwardTaskDone      EventType = "forward_task_done"
	EventForwardTaskError     EventType = "forward_task_error"
	EventForwardTaskCancelled EventType = "forward_task_cancelled"

	EventBackwardTaskStart     EventType = "backward_task_start"
	EventBackwardTaskDone      EventType = "backward_task_done"
	EventBackwardTaskError     EventType = "backward_task_error"
	EventBackwardTaskCancelled EventType = "backward_task_cancelled"

	EventMiddlewareError EventType = "middleware_error"
	EventUnknownError    EventType = "unknown_error"
)

// Event is one entry in a channel's debug trace.
type Event struct {
	Type EventType
	Time time.Time
	Err  error
}

// eventLog is a plain mutex-guarded slice, not a ring buffer: nothing ever
// reads it concurrently with a producer in the hot path, and a channel's
// lifetime is bounded, so unbounded growth within one channel's lifetime
// is not a concern.
type eventLog struct {
	mu      sync.Mutex
	debug   bool
	entries []Event
}

func newEventLog(debug bool) *eventLog {
	return &eventLog{debug: debug}
}

func (l *eventLog) save(t EventType, err error) {
	if !l.debug {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Event{Type: t, Time: time.Now(), Err: err})
}

// Events returns a snapshot of the recorded events.
func (l *eventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, len(l.entries))
	copy(out, l.entries)

	return out
}
