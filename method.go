package stated

import (
	"fmt"
	"sort"
)

// Callable is a state method body. The proxy it runs against is passed
// explicitly through self.
type Callable func(self *Self, args ...any) (any, error)

// Builder returns the callable for a method. Builders never run business
// logic themselves.
type Builder func() Callable

// BoundMethod is a callable already bound to one proxy.
type BoundMethod func(args ...any) (any, error)

// Method describes one entry of a state's method table. Visibility is fixed
// at definition time.
type Method struct {
	Name       string
	Visibility Visibility
	Static     bool
	Build      Builder
}

// ReservedMethodNames lists the state management names that can never be
// dispatched to, whatever a definition declares.
var ReservedMethodNames = map[string]struct{}{
	"Name":           {},
	"StatedClass":    {},
	"PrivateMode":    {},
	"SetPrivateMode": {},
	"ListMethods":    {},
	"Resolve":        {},
	"Execute":        {},
}

func isReservedMethod(name string) bool {
	_, ok := ReservedMethodNames[name]
	return ok
}

// StateDefinition is the method table of one state type. It is built once and
// shared by every StateInstance created from it.
type StateDefinition struct {
	name    string
	methods map[string]Method
}

// NewStateDefinition constructs an empty definition for the named state.
func NewStateDefinition(name string) *StateDefinition {
	return &StateDefinition{
		name:    name,
		methods: make(map[string]Method),
	}
}

// Name returns the state name.
func (d *StateDefinition) Name() string {
	if d == nil {
		return ""
	}
	return d.name
}

// Define stores method, replacing any previous entry with the same name.
func (d *StateDefinition) Define(method Method) error {
	if d == nil {
		return newError(ErrIllegalState, withDetail("definition is nil"))
	}
	if method.Name == "" {
		return newError(ErrInvalidArgument, withState(d.name), withDetail("method name must not be empty"))
	}
	if !method.Visibility.Valid() {
		return newError(ErrInvalidArgument, withState(d.name), withMethod(method.Name),
			withDetail(fmt.Sprintf("invalid visibility %s", method.Visibility)))
	}
	if method.Build == nil {
		return newError(ErrInvalidArgument, withState(d.name), withMethod(method.Name), withDetail("builder is nil"))
	}
	if d.methods == nil {
		d.methods = make(map[string]Method)
	}
	d.methods[method.Name] = method
	return nil
}

// Public registers a public method and returns d for chaining. Invalid
// entries panic since definitions are assembled at program start.
func (d *StateDefinition) Public(name string, build Builder) *StateDefinition {
	return d.mustDefine(Method{Name: name, Visibility: VisibilityPublic, Build: build})
}

// Protected registers a protected method.
func (d *StateDefinition) Protected(name string, build Builder) *StateDefinition {
	return d.mustDefine(Method{Name: name, Visibility: VisibilityProtected, Build: build})
}

// Private registers a private method.
func (d *StateDefinition) Private(name string, build Builder) *StateDefinition {
	return d.mustDefine(Method{Name: name, Visibility: VisibilityPrivate, Build: build})
}

// Static registers a class-level method. Static methods are never eligible
// for dispatch.
func (d *StateDefinition) Static(name string, build Builder) *StateDefinition {
	return d.mustDefine(Method{Name: name, Visibility: VisibilityPublic, Static: true, Build: build})
}

func (d *StateDefinition) mustDefine(method Method) *StateDefinition {
	if err := d.Define(method); err != nil {
		panic(err)
	}
	return d
}

func (d *StateDefinition) lookup(name string) (Method, bool) {
	if d == nil || d.methods == nil {
		return Method{}, false
	}
	method, ok := d.methods[name]
	if !ok || method.Static || isReservedMethod(name) {
		return Method{}, false
	}
	return method, true
}

func (d *StateDefinition) names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.methods))
	for name, method := range d.methods {
		if method.Static || isReservedMethod(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fn adapts a plain callable into a Builder.
func Fn(fn Callable) Builder {
	return func() Callable {
		return fn
	}
}
