package stated

import (
	"fmt"
	"slices"
)

// Finder resolves the states and proxies of one stated class.
type Finder interface {
	StatedClassName() string
	// ListStates returns the states declared by the class itself.
	ListStates() ([]string, error)
	BuildState(name string) (State, error)
	BuildProxy(args ...any) (*Proxy, error)
	// ListParentStatedClassNames returns the ancestor stated classes, nearest
	// first.
	ListParentStatedClassNames() ([]string, error)
}

// DefaultStateProvider is implemented by finders whose class uses a default
// state name other than the configured one.
type DefaultStateProvider interface {
	DefaultStateName() string
}

// AttributeProvider is implemented by finders whose class declares default
// attribute values.
type AttributeProvider interface {
	DefaultAttributes() map[string]any
}

// Constructor turns Build arguments into initial proxy attributes.
type Constructor func(args ...any) (map[string]any, error)

// Class declares a stated class: its states, its parent stated class and
// its construction defaults.
type Class struct {
	name         string
	parent       string
	states       []*StateDefinition
	defaultState string
	attributes   map[string]any
	constructor  Constructor
	proxyOptions []ProxyOption
}

// ClassOption configures a Class.
type ClassOption func(*Class)

// NewClass declares the stated class name.
func NewClass(name string, opts ...ClassOption) *Class {
	class := &Class{name: name}
	for _, opt := range opts {
		if opt != nil {
			opt(class)
		}
	}
	return class
}

// WithParent names the stated class this one inherits states from.
func WithParent(name string) ClassOption {
	return func(c *Class) {
		c.parent = name
	}
}

// WithStates adds state definitions. A later definition with the same name
// replaces the earlier one.
func WithStates(definitions ...*StateDefinition) ClassOption {
	return func(c *Class) {
		for _, def := range definitions {
			if def == nil {
				continue
			}
			c.states = slices.DeleteFunc(c.states, func(existing *StateDefinition) bool {
				return existing.Name() == def.Name()
			})
			c.states = append(c.states, def)
		}
	}
}

// WithDefaultState sets the state enabled when none is requested.
func WithDefaultState(name string) ClassOption {
	return func(c *Class) {
		c.defaultState = name
	}
}

// WithDefaultAttributes sets attribute defaults merged into every proxy of
// the class and its descendants.
func WithDefaultAttributes(attributes map[string]any) ClassOption {
	return func(c *Class) {
		c.attributes = attributes
	}
}

// WithConstructor sets the function turning Build arguments into attributes.
func WithConstructor(constructor Constructor) ClassOption {
	return func(c *Class) {
		c.constructor = constructor
	}
}

// WithClassProxyOptions applies opts to every proxy of the class.
func WithClassProxyOptions(opts ...ProxyOption) ClassOption {
	return func(c *Class) {
		c.proxyOptions = append(c.proxyOptions, opts...)
	}
}

func (c *Class) Name() string {
	return c.name
}

func (c *Class) Parent() string {
	return c.parent
}

// StateNames returns the declared state names in declaration order.
func (c *Class) StateNames() []string {
	names := make([]string, len(c.states))
	for i, def := range c.states {
		names[i] = def.Name()
	}
	return names
}

func (c *Class) definition(name string) (*StateDefinition, bool) {
	for _, def := range c.states {
		if def.Name() == name {
			return def, true
		}
	}
	return nil, false
}

// ClassLookup resolves declared classes by name.
type ClassLookup interface {
	Class(name string) (*Class, bool)
}

// ClassFinder is the Finder of a declared Class.
type ClassFinder struct {
	class        *Class
	lookup       ClassLookup
	proxyOptions []ProxyOption
}

// NewClassFinder builds a finder for class. lookup resolves parents; when nil
// the class is treated as having no stated ancestors.
func NewClassFinder(class *Class, lookup ClassLookup, opts ...ProxyOption) *ClassFinder {
	return &ClassFinder{class: class, lookup: lookup, proxyOptions: opts}
}

func (f *ClassFinder) StatedClassName() string {
	return f.class.name
}

func (f *ClassFinder) ListStates() ([]string, error) {
	return f.class.StateNames(), nil
}

func (f *ClassFinder) BuildState(name string) (State, error) {
	def, ok := f.class.definition(name)
	if !ok {
		return nil, newError(ErrStateNotFound, withClass(f.class.name), withState(name))
	}
	return NewState(def, f.class.name), nil
}

func (f *ClassFinder) BuildProxy(args ...any) (*Proxy, error) {
	var attributes map[string]any
	if f.class.constructor != nil {
		built, err := f.class.constructor(args...)
		if err != nil {
			return nil, fmt.Errorf("stated: construct %q: %w", f.class.name, err)
		}
		attributes = built
	}
	opts := make([]ProxyOption, 0, len(f.proxyOptions)+len(f.class.proxyOptions)+1)
	opts = append(opts, f.proxyOptions...)
	opts = append(opts, f.class.proxyOptions...)
	if attributes != nil {
		opts = append(opts, WithAttributes(attributes))
	}
	return NewProxy(f.class.name, opts...), nil
}

// ListParentStatedClassNames walks the parent chain and stops at the first
// parent the lookup does not know.
func (f *ClassFinder) ListParentStatedClassNames() ([]string, error) {
	if f.lookup == nil {
		return nil, nil
	}
	var parents []string
	seen := map[string]struct{}{f.class.name: {}}
	for name := f.class.parent; name != ""; {
		if _, cycle := seen[name]; cycle {
			return nil, newError(ErrInvalidArgument, withClass(f.class.name),
				withDetail(fmt.Sprintf("inheritance cycle through %q", name)))
		}
		seen[name] = struct{}{}
		parent, ok := f.lookup.Class(name)
		if !ok {
			break
		}
		parents = append(parents, name)
		name = parent.parent
	}
	return parents, nil
}

func (f *ClassFinder) DefaultStateName() string {
	return f.class.defaultState
}

func (f *ClassFinder) DefaultAttributes() map[string]any {
	return f.class.attributes
}
