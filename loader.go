package stated

import (
	"fmt"
	"sync"
)

// Loader keeps declared classes and builds their factories on demand,
// parents first, so every factory finds its ancestors in the container.
type Loader struct {
	mu           sync.Mutex
	classes      map[string]*Class
	factories    map[string]*Factory
	container    Container
	startup      *StartupRegistry
	config       Config
	proxyOptions []ProxyOption
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderContainer sets the container factories are published in.
func WithLoaderContainer(container Container) LoaderOption {
	return func(l *Loader) {
		if container != nil {
			l.container = container
		}
	}
}

// WithLoaderStartupRegistry sets the startup registry factories are
// published in.
func WithLoaderStartupRegistry(registry *StartupRegistry) LoaderOption {
	return func(l *Loader) {
		l.startup = registry
	}
}

// WithLoaderConfig sets the configuration handed to every factory.
func WithLoaderConfig(cfg Config) LoaderOption {
	return func(l *Loader) {
		l.config = cfg.normalized()
	}
}

// WithLoaderProxyOptions applies opts to every proxy built by the loader,
// after the activity settings taken from the loader config.
func WithLoaderProxyOptions(opts ...ProxyOption) LoaderOption {
	return func(l *Loader) {
		l.proxyOptions = append(l.proxyOptions, opts...)
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		classes:   map[string]*Class{},
		factories: map[string]*Factory{},
		container: NewMemoryContainer(),
		startup:   DefaultStartupRegistry(),
		config:    DefaultConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Register declares classes. A class can be registered once.
func (l *Loader) Register(classes ...*Class) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, class := range classes {
		if class == nil || class.Name() == "" {
			return newError(ErrInvalidArgument, withDetail("class must be named"))
		}
		if _, exists := l.classes[class.Name()]; exists {
			return newError(ErrIllegalFactory, withClass(class.Name()), withDetail("class already registered"))
		}
		l.classes[class.Name()] = class
	}
	return nil
}

// Class implements ClassLookup.
func (l *Loader) Class(name string) (*Class, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	class, ok := l.classes[name]
	return class, ok
}

// Container returns the container holding the loader's factories.
func (l *Loader) Container() Container {
	return l.container
}

// Factory returns the factory of class, creating it and its ancestors'
// factories when needed.
func (l *Loader) Factory(class string) (*Factory, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.factoryLocked(class, map[string]struct{}{})
}

func (l *Loader) factoryLocked(name string, visiting map[string]struct{}) (*Factory, error) {
	if factory, ok := l.factories[name]; ok {
		return factory, nil
	}
	class, ok := l.classes[name]
	if !ok {
		return nil, newError(ErrUnavailableLoader, withClass(name), withDetail("class is not registered"))
	}
	if _, cycle := visiting[name]; cycle {
		return nil, newError(ErrInvalidArgument, withClass(name), withDetail("inheritance cycle"))
	}
	visiting[name] = struct{}{}

	if parent := class.Parent(); parent != "" {
		if _, known := l.classes[parent]; known {
			if _, err := l.factoryLocked(parent, visiting); err != nil {
				return nil, err
			}
		}
	}

	opts := append([]ProxyOption{WithActivityConfig(l.config.ActivityConfig())}, l.proxyOptions...)
	finder := NewClassFinder(class, l, opts...)
	factory, err := NewFactory(name, finder, l.container,
		WithFactoryConfig(l.config),
		WithFactoryStartupRegistry(l.startup),
	)
	if err != nil {
		return nil, err
	}
	l.factories[name] = factory
	return factory, nil
}

// Build creates a proxy of class with stateName enabled, or the class
// default state when stateName is empty.
func (l *Loader) Build(class, stateName string, args ...any) (*Proxy, error) {
	factory, err := l.Factory(class)
	if err != nil {
		return nil, err
	}
	proxy, err := factory.Build(args, stateName)
	if err != nil {
		return nil, fmt.Errorf("stated: build %q: %w", class, err)
	}
	return proxy, nil
}

// New creates a proxy of class in its default state.
func (l *Loader) New(class string, args ...any) (*Proxy, error) {
	return l.Build(class, "", args...)
}
