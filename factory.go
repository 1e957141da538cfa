package stated

import (
	"fmt"
	"slices"
	"sync"

	"github.com/goliatone/go-stated/layering"
)

// Factory builds and initializes proxies of one stated class, merging the
// states inherited from ancestor stated classes.
type Factory struct {
	statedClass string
	finder      Finder
	container   Container
	startup     *StartupRegistry
	config      Config

	mu        sync.Mutex
	resolved  bool
	inherited []stateOrigin
	defaults  map[string]any
}

type stateOrigin struct {
	name   string
	class  string
	finder Finder
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithFactoryConfig sets the configuration used for default state policy.
func WithFactoryConfig(cfg Config) FactoryOption {
	return func(f *Factory) {
		f.config = cfg.normalized()
	}
}

// WithFactoryStartupRegistry selects the startup registry the factory
// publishes itself in. A nil registry skips publication.
func WithFactoryStartupRegistry(registry *StartupRegistry) FactoryOption {
	return func(f *Factory) {
		f.startup = registry
	}
}

// NewFactory initializes the factory of statedClass and publishes it in the
// container and the startup registry.
func NewFactory(statedClass string, finder Finder, container Container, opts ...FactoryOption) (*Factory, error) {
	if statedClass == "" {
		return nil, newError(ErrInvalidArgument, withDetail("stated class must not be empty"))
	}
	if finder == nil {
		return nil, newError(ErrUnavailableLoader, withClass(statedClass), withDetail("finder is nil"))
	}
	if container == nil {
		return nil, newError(ErrInvalidArgument, withClass(statedClass), withDetail("container is nil"))
	}
	if name := finder.StatedClassName(); name != statedClass {
		return nil, newError(ErrIllegalFactory, withClass(statedClass),
			withDetail(fmt.Sprintf("finder resolves class %q", name)))
	}

	f := &Factory{
		statedClass: statedClass,
		finder:      finder,
		container:   container,
		startup:     DefaultStartupRegistry(),
		config:      DefaultConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	key := FactoryKey(statedClass)
	if container.TestEntry(key) {
		return nil, newError(ErrIllegalFactory, withClass(statedClass), withDetail("factory already registered"))
	}
	if err := container.RegisterInstance(key, f); err != nil {
		return nil, fmt.Errorf("stated: register factory %q: %w", statedClass, err)
	}
	if f.startup != nil {
		if err := f.startup.RegisterFactory(statedClass, f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// StatedClass returns the class the factory builds.
func (f *Factory) StatedClass() string {
	return f.statedClass
}

// Finder returns the finder of the factory's own class.
func (f *Factory) Finder() Finder {
	return f.finder
}

// DefaultStateName returns the state enabled when none is requested.
func (f *Factory) DefaultStateName() string {
	if provider, ok := f.finder.(DefaultStateProvider); ok {
		if name := provider.DefaultStateName(); name != "" {
			return name
		}
	}
	return f.config.DefaultState
}

// ListStatesByInheritance returns the own states followed by the inherited
// ones. A state declared closer to the class shadows ancestors' states with
// the same name.
func (f *Factory) ListStatesByInheritance() ([]string, error) {
	origins, err := f.inheritedStates()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(origins))
	for i, origin := range origins {
		names[i] = origin.name
	}
	return names, nil
}

func (f *Factory) inheritedStates() ([]stateOrigin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved {
		return f.inherited, nil
	}

	var origins []stateOrigin
	seen := map[string]struct{}{}
	layers := []map[string]any{}
	collect := func(class string, finder Finder) error {
		names, err := finder.ListStates()
		if err != nil {
			return fmt.Errorf("stated: list states of %q: %w", class, err)
		}
		for _, name := range names {
			if _, shadowed := seen[name]; shadowed {
				continue
			}
			seen[name] = struct{}{}
			origins = append(origins, stateOrigin{name: name, class: class, finder: finder})
		}
		if provider, ok := finder.(AttributeProvider); ok {
			if attrs := provider.DefaultAttributes(); attrs != nil {
				layers = append(layers, attrs)
			}
		}
		return nil
	}

	if err := collect(f.statedClass, f.finder); err != nil {
		return nil, err
	}
	parents, err := f.finder.ListParentStatedClassNames()
	if err != nil {
		return nil, fmt.Errorf("stated: list parents of %q: %w", f.statedClass, err)
	}
	for _, parent := range parents {
		parentFactory, err := f.parentFactory(parent)
		if err != nil {
			return nil, err
		}
		if err := collect(parent, parentFactory.finder); err != nil {
			return nil, err
		}
	}

	f.inherited = origins
	f.defaults = layering.MergeLayers(layers...)
	f.resolved = true
	return f.inherited, nil
}

func (f *Factory) parentFactory(class string) (*Factory, error) {
	key := FactoryKey(class)
	if !f.container.TestEntry(key) {
		return nil, newError(ErrUnavailableFactory, withClass(class),
			withDetail("required by "+f.statedClass))
	}
	value, err := f.container.Get(key)
	if err != nil {
		return nil, newError(ErrUnavailableFactory, withClass(class), withDetail(err.Error()))
	}
	parent, ok := value.(*Factory)
	if !ok || parent == nil {
		return nil, newError(ErrIllegalFactory, withClass(class), withDetail(fmt.Sprintf("container holds %T", value)))
	}
	return parent, nil
}

// Startup registers every state available to the class on proxy, then
// enables stateName, or the default state when stateName is empty.
func (f *Factory) Startup(proxy *Proxy, stateName string) error {
	if proxy == nil {
		return newError(ErrIllegalProxy, withClass(f.statedClass), withDetail("proxy is nil"))
	}
	if proxy.StatedClass() != f.statedClass {
		return newError(ErrIllegalProxy, withClass(f.statedClass),
			withDetail(fmt.Sprintf("proxy belongs to class %q", proxy.StatedClass())))
	}
	origins, err := f.inheritedStates()
	if err != nil {
		return err
	}
	available := func(name string) bool {
		return slices.ContainsFunc(origins, func(o stateOrigin) bool { return o.name == name })
	}
	if stateName != "" && !available(stateName) {
		return newError(ErrStateNotFound, withClass(f.statedClass), withState(stateName))
	}

	states := make([]State, len(origins))
	for i, origin := range origins {
		state, err := origin.finder.BuildState(origin.name)
		if err != nil {
			return fmt.Errorf("stated: build state %q of %q: %w", origin.name, origin.class, err)
		}
		if state == nil {
			return newError(ErrIllegalState, withClass(origin.class), withState(origin.name), withDetail("finder returned nil state"))
		}
		state.SetPrivateMode(origin.class != f.statedClass)
		states[i] = state
	}
	for i, origin := range origins {
		if err := proxy.RegisterState(origin.name, states[i]); err != nil {
			return err
		}
	}
	proxy.mergeAttributes(f.defaults)

	switch {
	case stateName != "":
		return proxy.SwitchState(stateName)
	case available(f.DefaultStateName()):
		return proxy.SwitchState(f.DefaultStateName())
	case f.config.RequireDefaultState:
		return newError(ErrStateNotFound, withClass(f.statedClass), withState(f.DefaultStateName()),
			withDetail("default state is required"))
	default:
		return nil
	}
}

// Build asks the finder for a new proxy and starts it up.
func (f *Factory) Build(args []any, stateName string) (*Proxy, error) {
	proxy, err := f.finder.BuildProxy(args...)
	if err != nil {
		return nil, err
	}
	if proxy == nil {
		return nil, newError(ErrIllegalProxy, withClass(f.statedClass), withDetail("finder returned nil proxy"))
	}
	if err := f.Startup(proxy, stateName); err != nil {
		return nil, err
	}
	return proxy, nil
}
