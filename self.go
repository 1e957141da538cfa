package stated

// Self is the receiver handed to state methods. It exposes the proxy the
// method runs against together with the state that declared the method.
type Self struct {
	proxy *Proxy
	state State
}

// Proxy returns the proxy the method is bound to.
func (s *Self) Proxy() *Proxy {
	return s.proxy
}

// StateName returns the name of the state executing the method.
func (s *Self) StateName() string {
	return s.state.Name()
}

// Call dispatches method on the proxy from inside the composition. Private
// methods are reachable when they belong to the calling state's stated class.
func (s *Self) Call(method string, args ...any) (any, error) {
	return s.proxy.dispatch(method, args, VisibilityPrivate, s.state.StatedClass())
}

// Get returns the attribute stored under name, or nil.
func (s *Self) Get(name string) any {
	return s.proxy.attrs[name]
}

// Lookup returns the attribute stored under name and whether it exists.
func (s *Self) Lookup(name string) (any, bool) {
	value, ok := s.proxy.attrs[name]
	return value, ok
}

// Set stores value under name.
func (s *Self) Set(name string, value any) {
	s.proxy.attrs[name] = value
}

// Unset removes the attribute stored under name.
func (s *Self) Unset(name string) {
	delete(s.proxy.attrs, name)
}
