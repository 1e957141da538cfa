package stated

// State is a named bundle of methods that a Proxy can enable or disable.
type State interface {
	Name() string
	// StatedClass returns the stated class that declared the state.
	StatedClass() string
	PrivateMode() bool
	SetPrivateMode(enabled bool)
	ListMethods() []string
	// Resolve returns the method bound to proxy. ok is false when the state
	// does not expose the method.
	Resolve(proxy *Proxy, method string) (bound BoundMethod, ok bool, err error)
	// Execute runs method when it exists and is visible, handing its single
	// return value to ret. handled is false when the method is missing or not
	// visible; both cases look the same to the caller.
	Execute(proxy *Proxy, method string, args []any, scope Visibility, origin string, ret func(any)) (handled bool, err error)
}

// StateInstance is the State implementation backed by a StateDefinition. An
// instance belongs to a single proxy.
type StateInstance struct {
	definition  *StateDefinition
	statedClass string
	privateMode bool

	boundTo *Proxy
	cache   map[string]BoundMethod
}

// NewState creates a state instance of definition declared by statedClass.
func NewState(definition *StateDefinition, statedClass string) *StateInstance {
	return &StateInstance{
		definition:  definition,
		statedClass: statedClass,
		cache:       make(map[string]BoundMethod),
	}
}

func (s *StateInstance) Name() string {
	return s.definition.Name()
}

func (s *StateInstance) StatedClass() string {
	return s.statedClass
}

func (s *StateInstance) PrivateMode() bool {
	return s.privateMode
}

func (s *StateInstance) SetPrivateMode(enabled bool) {
	s.privateMode = enabled
}

// ListMethods returns the dispatchable method names, sorted.
func (s *StateInstance) ListMethods() []string {
	return s.definition.names()
}

// Resolve binds the named method to proxy, reusing a cached binding when the
// proxy did not change.
func (s *StateInstance) Resolve(proxy *Proxy, method string) (BoundMethod, bool, error) {
	if proxy == nil {
		return nil, false, newError(ErrIllegalProxy, withState(s.Name()), withMethod(method), withDetail("proxy is nil"))
	}
	if s.boundTo != proxy {
		s.boundTo = proxy
		s.cache = make(map[string]BoundMethod)
	}
	if bound, ok := s.cache[method]; ok {
		return bound, true, nil
	}

	def, ok := s.definition.lookup(method)
	if !ok {
		return nil, false, nil
	}
	callable := def.Build()
	if callable == nil {
		return nil, false, newError(ErrMethodNotImplemented,
			withClass(s.statedClass), withState(s.Name()), withMethod(method),
			withDetail("builder did not return a callable"))
	}

	self := &Self{proxy: proxy, state: s}
	bound := func(args ...any) (any, error) {
		return callable(self, args...)
	}
	s.cache[method] = bound
	return bound, true, nil
}

// Execute implements State.
func (s *StateInstance) Execute(proxy *Proxy, method string, args []any, scope Visibility, origin string, ret func(any)) (bool, error) {
	def, ok := s.definition.lookup(method)
	if !ok {
		return false, nil
	}
	visible, err := IsVisible(def.Visibility, s.privateMode, s.statedClass, origin, scope)
	if err != nil {
		return false, err
	}
	if !visible {
		return false, nil
	}

	bound, ok, err := s.Resolve(proxy, method)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	result, callErr := bound(args...)
	if ret != nil {
		ret(result)
	}
	return true, callErr
}
