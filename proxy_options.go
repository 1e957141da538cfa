package stated

import "github.com/goliatone/go-stated/pkg/activity"

// ProxyOption configures a Proxy on construction.
type ProxyOption func(*proxyConfig)

type proxyConfig struct {
	logger       Logger
	emitter      *activity.Emitter
	hooks        activity.Hooks
	activity     activity.Config
	attributes   map[string]any
	objectID     string
	initialState string
	startup      *StartupRegistry
}

func applyProxyOptions(opts []ProxyOption) proxyConfig {
	cfg := proxyConfig{
		activity: activity.Config{Enabled: true, Channel: DefaultActivityChannel},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	cfg.emitter = activity.NewEmitter(cfg.hooks, cfg.activity)
	return cfg
}

// WithLogger attaches a logger receiving dispatch and transition events.
func WithLogger(logger Logger) ProxyOption {
	return func(cfg *proxyConfig) {
		cfg.logger = logger
	}
}

// WithActivityHooks attaches hooks notified on state transitions. Nil hooks
// are dropped.
func WithActivityHooks(hooks activity.Hooks) ProxyOption {
	normalized := hooks.Compact()
	return func(cfg *proxyConfig) {
		cfg.hooks = normalized
	}
}

// WithActivityConfig overrides the activity emission defaults.
func WithActivityConfig(config activity.Config) ProxyOption {
	return func(cfg *proxyConfig) {
		cfg.activity = config
	}
}

// WithAttributes seeds the proxy attributes. The map is deep copied.
func WithAttributes(attributes map[string]any) ProxyOption {
	return func(cfg *proxyConfig) {
		cfg.attributes = attributes
	}
}

// WithObjectID fixes the proxy identity token instead of generating one.
func WithObjectID(id string) ProxyOption {
	return func(cfg *proxyConfig) {
		cfg.objectID = id
	}
}

// WithInitialState selects the state enabled by NewStatedProxy.
func WithInitialState(name string) ProxyOption {
	return func(cfg *proxyConfig) {
		cfg.initialState = name
	}
}

// WithStartupRegistry selects the registry NewStatedProxy forwards to.
func WithStartupRegistry(registry *StartupRegistry) ProxyOption {
	return func(cfg *proxyConfig) {
		cfg.startup = registry
	}
}
