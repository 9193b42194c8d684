package extension

import (
	"github.com/ezex-io/podchannel/config"
	"github.com/ezex-io/podchannel/logger"
)

// Manager is an insertion-ordered registry of named extension instances,
// grounded on the source's ExtensionManager (an OrderedDict keyed by
// name). Go maps have no stable iteration order, so a parallel slice of
// names tracks load order for Setup/Cleanup.
type Manager struct {
	names     []string
	instances map[string]any
}

// NewManager returns an empty Manager; call Load to populate it.
func NewManager() *Manager {
	return &Manager{instances: make(map[string]any)}
}

// Load resolves each configured extension against registry and installs
// it under its Name. An entry with an empty Class is the remove-by-name
// sentinel; construction failures are logged and the entry is skipped,
// and a duplicate name logs a warning and replaces the prior instance
// without disturbing its position in load order.
func (m *Manager) Load(confs []config.ExtensionConfig, registry map[string]Constructor) {
	for _, conf := range confs {
		if conf.Class == "" {
			m.remove(conf.Name)

			continue
		}

		ctor, ok := registry[conf.Class]
		if !ok {
			logger.Error("extension class not registered", "class", conf.Class, "name", conf.Name)

			continue
		}

		inst, err := ctor(conf.Options)
		if err != nil {
			logger.Error("extension construction failed", "class", conf.Class, "name", conf.Name, "error", err)

			continue
		}

		if _, exists := m.instances[conf.Name]; exists {
			logger.Warn("extension name already loaded, replacing", "name", conf.Name)
		} else {
			m.names = append(m.names, conf.Name)
		}

		m.instances[conf.Name] = inst
	}
}

func (m *Manager) remove(name string) {
	if _, ok := m.instances[name]; !ok {
		return
	}

	delete(m.instances, name)

	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)

			break
		}
	}

	logger.Warn("extension removed", "name", name)
}

// Get returns the named extension instance, or nil if none is loaded.
func (m *Manager) Get(name string) any {
	return m.instances[name]
}

// Setup runs Setupper.Setup on every loaded extension in load order. An
// extension whose Setup fails is logged and dropped from the registry.
func (m *Manager) Setup() {
	var kept []string

	for _, name := range m.names {
		inst := m.instances[name]

		if s, ok := inst.(Setupper); ok {
			if err := s.Setup(); err != nil {
				logger.Error("extension setup failed", "name", name, "error", err)
				delete(m.instances, name)

				continue
			}
		}

		kept = append(kept, name)
	}

	m.names = kept
}

// Cleanup runs Cleanupper.Cleanup on every loaded extension in reverse
// load order, logging but not aborting on failure.
func (m *Manager) Cleanup() {
	for i := len(m.names) - 1; i >= 0; i-- {
		name := m.names[i]
		if cu, ok := m.instances[name].(Cleanupper); ok {
			if err := cu.Cleanup(); err != nil {
				logger.Error("extension cleanup failed", "name", name, "error", err)
			}
		}
	}
}
