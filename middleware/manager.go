package middleware

import (
	"context"
	stderrors "errors"
	"sort"

	"github.com/ezex-io/podchannel/config"
	"github.com/ezex-io/podchannel/errors"
	"github.com/ezex-io/podchannel/logger"
)

// entry pairs a loaded middleware instance with the id/class it was
// configured under, kept around so a later config entry with the same
// (id, class) can replace it in place.
type entry struct {
	id    int
	class string
	inst  any
}

// Manager owns the ordered middleware chain and runs every chunk in each
// direction through it, per spec.md §4.2.
type Manager struct {
	entries  []entry
	forward  []Forwarder
	backward []Backwarder
	close    []CloseHook
}

// NewManager returns an empty Manager; call Load to populate it.
func NewManager() *Manager {
	return &Manager{}
}

// Load builds the middleware chain from confs, resolving each entry's
// Class against registry. Entries are processed in order: a nil ID is the
// remove-by-class sentinel (every previously loaded entry of that class is
// dropped, logged); otherwise the entry is inserted in ascending-ID order,
// replacing any existing entry with the same (ID, Class) in place.
// Construction failures are logged and the offending entry is skipped,
// exactly like the source's load_middlewares.
func (m *Manager) Load(confs []config.MiddlewareConfig, registry map[string]Constructor) {
	for _, conf := range confs {
		if conf.ID == nil {
			m.remove(conf.Class)

			continue
		}
		m.insert(conf, registry)
	}

	m.rebuildCallbacks()
}

func (m *Manager) remove(class string) {
	kept := m.entries[:0]

	removed := false

	for _, e := range m.entries {
		if e.class == class {
			removed = true

			continue
		}
		kept = append(kept, e)
	}

	m.entries = kept

	if removed {
		logger.Warn("middleware removed by class", "class", class)
	}
}

func (m *Manager) insert(conf config.MiddlewareConfig, registry map[string]Constructor) {
	ctor, ok := registry[conf.Class]
	if !ok {
		logger.Error("middleware class not registered", "class", conf.Class)

		return
	}

	inst, err := ctor(conf.Options)
	if err != nil {
		logger.Error("middleware construction failed", "class", conf.Class, "error", err)

		return
	}

	newEntry := entry{id: *conf.ID, class: conf.Class, inst: inst}

	for i, e := range m.entries {
		if e.id == newEntry.id && e.class == newEntry.class {
			m.entries[i] = newEntry

			return
		}
	}

	m.entries = append(m.entries, newEntry)
	sort.SliceStable(m.entries, func(i, j int) bool { return m.entries[i].id < m.entries[j].id })
}

// rebuildCallbacks derives the forward/backward/close hook lists from the
// current entry set, in the source's _register_callbacks order: forward
// hooks append, close hooks append, backward hooks prepend so the entry
// with the highest ID (last in chain order) runs first on the return path
// (onion ordering).
func (m *Manager) rebuildCallbacks() {
	m.forward = m.forward[:0]
	m.backward = m.backward[:0]
	m.close = m.close[:0]

	for _, e := range m.entries {
		if f, ok := e.inst.(Forwarder); ok {
			m.forward = append(m.forward, f)
		}
		if c, ok := e.inst.(CloseHook); ok {
			m.close = append(m.close, c)
		}
		if b, ok := e.inst.(Backwarder); ok {
			m.backward = append([]Backwarder{b}, m.backward...)
		}
	}
}

// Forward threads data through every registered Forwarder in chain
// (ascending-ID) order.
// A hook returning a nil/empty slice with a nil error short-circuits the
// chain (spec.md §4.2's drop semantics); any non-nil error aborts the
// chain and is returned wrapped as *errors.MiddlewareError, except
// context.Canceled which propagates unchanged so it is never misreported
// as a middleware fault.
func (m *Manager) Forward(c Conn, data []byte) ([]byte, error) {
	return runHooks(c, data, func(f Forwarder, c Conn, d []byte) ([]byte, error) { return f.Forward(c, d) }, m.forward)
}

// Backward threads data through every registered Backwarder in reverse
// chain order, highest-ID middleware first.
func (m *Manager) Backward(c Conn, data []byte) ([]byte, error) {
	return runHooks(c, data, func(b Backwarder, c Conn, d []byte) ([]byte, error) { return b.Backward(c, d) }, m.backward)
}

func runHooks[H any](c Conn, data []byte, call func(H, Conn, []byte) ([]byte, error), hooks []H) ([]byte, error) {
	cur := data

	for _, h := range hooks {
		out, err := call(h, c, cur)
		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}

			return nil, errors.NewMiddlewareError(hookName(h), err)
		}

		if len(out) == 0 {
			return nil, nil
		}

		cur = out
	}

	return cur, nil
}

func hookName(h any) string {
	type named interface{ String() string }
	if n, ok := h.(named); ok {
		return n.String()
	}

	return "middleware"
}

// Close runs every registered CloseHook in chain order, logging but not
// aborting on individual failures, per spec.md §4.2/§7.
func (m *Manager) Close(c Conn) {
	for _, h := range m.close {
		if err := h.Close(c); err != nil {
			logger.Error("middleware close hook failed", "error", err)
		}
	}
}

// Setup runs Setupper.Setup on every loaded entry, in chain order. An
// entry whose Setup fails is logged and dropped from the chain entirely
// (including its forward/backward/close hooks), matching the source's
// extension setup-failure handling applied here to middleware per
// spec.md §4.2's "Setup/Cleanup hooks (if present)" note.
func (m *Manager) Setup() {
	kept := m.entries[:0]

	for _, e := range m.entries {
		if s, ok := e.inst.(Setupper); ok {
			if err := s.Setup(); err != nil {
				logger.Error("middleware setup failed", "class", e.class, "error", err)

				continue
			}
		}
		kept = append(kept, e)
	}

	m.entries = kept
	m.rebuildCallbacks()
}

// Cleanup runs Cleanupper.Cleanup on every loaded entry in reverse chain
// order, logging but not aborting on failure.
func (m *Manager) Cleanup() {
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if cu, ok := e.inst.(Cleanupper); ok {
			if err := cu.Cleanup(); err != nil {
				logger.Error("middleware cleanup failed", "class", e.class, "error", err)
			}
		}
	}
}
