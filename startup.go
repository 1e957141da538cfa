package stated

import "sync"

// StartupFactory initializes a bare proxy.
type StartupFactory interface {
	Startup(proxy *Proxy, stateName string) error
}

// StartupRegistry maps stated classes to the factory that initializes their
// proxies, so a proxy constructed directly can find its factory.
type StartupRegistry struct {
	mu        sync.RWMutex
	factories map[string]StartupFactory
}

func NewStartupRegistry() *StartupRegistry {
	return &StartupRegistry{factories: map[string]StartupFactory{}}
}

var defaultStartupRegistry = NewStartupRegistry()

// DefaultStartupRegistry returns the process wide registry.
func DefaultStartupRegistry() *StartupRegistry {
	return defaultStartupRegistry
}

// ResetStartup clears the process wide registry.
func ResetStartup() {
	defaultStartupRegistry.Reset()
}

// RegisterFactory publishes factory for class, replacing any previous one.
func (r *StartupRegistry) RegisterFactory(class string, factory StartupFactory) error {
	if class == "" {
		return newError(ErrInvalidArgument, withDetail("class must not be empty"))
	}
	if factory == nil {
		return newError(ErrIllegalFactory, withClass(class), withDetail("factory is nil"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = map[string]StartupFactory{}
	}
	r.factories[class] = factory
	return nil
}

// Factory returns the factory registered for class.
func (r *StartupRegistry) Factory(class string) (StartupFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[class]
	return factory, ok
}

// ForwardStartup runs the startup of the factory registered for the proxy's
// class and returns that factory.
func (r *StartupRegistry) ForwardStartup(proxy *Proxy, stateName string) (StartupFactory, error) {
	if proxy == nil {
		return nil, newError(ErrIllegalProxy, withDetail("proxy is nil"))
	}
	factory, ok := r.Factory(proxy.StatedClass())
	if !ok {
		return nil, newError(ErrUnavailableFactory, withClass(proxy.StatedClass()))
	}
	if err := factory.Startup(proxy, stateName); err != nil {
		return factory, err
	}
	return factory, nil
}

// Reset drops every registration.
func (r *StartupRegistry) Reset() {
	r.mu.Lock()
	r.factories = map[string]StartupFactory{}
	r.mu.Unlock()
}

// NewStatedProxy constructs a proxy of class and initializes it through the
// startup registry (WithStartupRegistry, or the process wide one), enabling
// the state chosen by WithInitialState.
func NewStatedProxy(class string, opts ...ProxyOption) (*Proxy, error) {
	proxy := NewProxy(class, opts...)
	registry := proxy.cfg.startup
	if registry == nil {
		registry = DefaultStartupRegistry()
	}
	if _, err := registry.ForwardStartup(proxy, proxy.cfg.initialState); err != nil {
		return nil, err
	}
	return proxy, nil
}
