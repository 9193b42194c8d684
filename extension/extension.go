// Package extension implements the engine's pluggable extension registry
// (spec.md §1/§6) plus two built-in extensions that give the engine's
// dumb-connect-timeout config key and registry mechanism something real
// to exercise: a retrying outbound dialer and a per-peer activity cache.
package extension

// Setupper runs once when the extension is armed. A returning error drops
// the extension from the registry entirely (logged).
type Setupper interface {
	Setup() error
}

// Cleanupper runs once at engine cleanup, in reverse load order.
type Cleanupper interface {
	Cleanup() error
}

// Constructor builds an extension instance from its configured options.
type Constructor func(options map[string]string) (any, error)
