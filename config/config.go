// Package config loads the engine's configuration from environment
// variables per the OS_AIO_POD_CHANNEL_ prefix convention, with typed
// defaults for every key. MIDDLEWARES and EXTENSIONS are structured lists
// with no sane flat-env-var representation, so Load leaves them empty and
// callers register them programmatically via AddMiddleware/AddExtension —
// there is no Go equivalent of dynamically importing a class by dotted
// path, so a "cls" is always a string key into a name->constructor
// registry built by the caller (see middleware.Manager.Load /
// extension.Manager.Load).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ezex-io/podchannel/env"
	"github.com/ezex-io/podchannel/logger"
)

const envPrefix = "OS_AIO_POD_CHANNEL_"

const (
	defaultReadMax            = 65536 * 5 // 64KiB * 5
	defaultCloseWait          = 60 * time.Second
	defaultDumbConnectTimeout = 3 * time.Second
)

// CloseChannelMode governs whether a channel's two tasks are cancelled
// together or one after the other when a close deadline fires.
type CloseChannelMode string

const (
	CloseChannelModeSerial   CloseChannelMode = "serial"
	CloseChannelModeParallel CloseChannelMode = "parallel"
)

// ChannelClass selects the channel startup variant (spec.md §4.3).
type ChannelClass string

const (
	ChannelClassSerialStart   ChannelClass = "serial-start"
	ChannelClassParallelStart ChannelClass = "parallel-start"
)

// MiddlewareConfig is one entry of the MIDDLEWARES list. ID nil is the
// remove-by-class sentinel; otherwise entries are sorted ascending by ID
// and a duplicate (ID, Class) pair replaces in place (see
// middleware.Manager.Load).
type MiddlewareConfig struct {
	Class   string
	ID      *int
	Options map[string]string
}

// ExtensionConfig is one entry of the EXTENSIONS list. An empty Class is
// the remove-by-name sentinel.
type ExtensionConfig struct {
	Name    string
	Class   string
	Options map[string]string
}

// Config is the engine's full configuration, per spec.md §6.
type Config struct {
	Middlewares []MiddlewareConfig
	Extensions  []ExtensionConfig

	ReadMax int

	// CloseWait is the close() deadline; nil means wait indefinitely.
	CloseWait *time.Duration

	// DumbConnectTimeout is the per-attempt connect bound for the built-in
	// dialer extension; nil means no bound. Nothing in this module reads it:
	// a caller passes it to extension.NewDialer (zero for nil) itself.
	DumbConnectTimeout *time.Duration

	CloseChannelMode CloseChannelMode
	ChannelClass     ChannelClass

	// Debug gates per-channel event-trace recording (spec.md §9: producers
	// never read it back, so it costs nothing to leave off in production).
	Debug bool
}

// Default returns the documented defaults with no middleware/extensions.
func Default() Config {
	closeWait := defaultCloseWait
	dumbConnectTimeout := defaultDumbConnectTimeout

	return Config{
		ReadMax:            defaultReadMax,
		CloseWait:          &closeWait,
		DumbConnectTimeout: &dumbConnectTimeout,
		CloseChannelMode:   CloseChannelModeSerial,
		ChannelClass:       ChannelClassSerialStart,
	}
}

// Load builds a Config from the process environment, falling back to
// Default's values for anything unset. If OS_AIO_POD_CHANNEL_ENV_FILE
// names one or more colon-separated dotenv files, they are loaded into
// the process environment first via env.LoadEnvsFromFile, so a deployment
// can ship its settings in a file without exporting them itself; a
// missing file is not an error per LoadEnvsFromFile's own contract, and
// any other load failure is logged rather than treated as fatal, since a
// malformed env file shouldn't prevent config.Load from falling back to
// its documented defaults. Middlewares/Extensions are always empty after
// Load; register them with AddMiddleware/AddExtension.
func Load() Config {
	if envFile := os.Getenv(envPrefix + "ENV_FILE"); envFile != "" {
		if err := env.LoadEnvsFromFile(strings.Split(envFile, ":")...); err != nil {
			logger.Warn("failed to load env file", "path", envFile, "error", err)
		}
	}

	cfg := Default()

	cfg.ReadMax = env.GetEnv[int](envPrefix+"READ_MAX",
		env.WithDefault(strconv.Itoa(defaultReadMax)))

	cfg.CloseWait = nullableDuration(envPrefix+"CLOSE_WAIT", defaultCloseWait)
	cfg.DumbConnectTimeout = nullableDuration(envPrefix+"DUMB_CONNECT_TIMEOUT", defaultDumbConnectTimeout)

	cfg.CloseChannelMode = CloseChannelMode(env.GetEnv[string](envPrefix+"CLOSE_CHANNEL_MODE",
		env.WithDefault(string(CloseChannelModeSerial))))
	cfg.ChannelClass = ChannelClass(env.GetEnv[string](envPrefix+"CHANNEL_CLASS",
		env.WithDefault(string(ChannelClassSerialStart))))
	cfg.Debug = env.GetEnv[bool](envPrefix+"DEBUG", env.WithDefault("false"))

	return cfg
}

// AddMiddleware appends a middleware config entry, preserving insertion
// order (load-time priority sorting happens in middleware.Manager.Load).
func (c *Config) AddMiddleware(mc MiddlewareConfig) {
	c.Middlewares = append(c.Middlewares, mc)
}

// AddExtension appends an extension config entry.
func (c *Config) AddExtension(ec ExtensionConfig) {
	c.Extensions = append(c.Extensions, ec)
}

// nullableDuration reads a Go duration string env var (e.g. "30s"; a bare
// number of seconds is malformed) that may be the literal "null" (meaning
// no limit): unset/empty falls back to def,
// "null" (any case) returns nil, anything else is parsed via
// env.GetOptionalDuration, which panics on malformed input to fail
// configuration loudly.
func nullableDuration(key string, def time.Duration) *time.Duration {
	if val, present := os.LookupEnv(key); present && strings.EqualFold(val, "null") {
		return nil
	}

	if d, ok := env.GetOptionalDuration(key); ok {
		return &d
	}

	d := def

	return &d
}
