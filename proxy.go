package stated

import (
	"slices"

	"github.com/goliatone/go-stated/layering"
	"github.com/google/uuid"
)

// Proxy is the object callers hold. Its behavior comes from the states it
// has enabled.
//
// A Proxy is not safe for concurrent use; callers sharing one across
// goroutines must serialize access.
type Proxy struct {
	class  string
	id     string
	states map[string]State
	order  []string
	active []string
	attrs  map[string]any
	cfg    proxyConfig
}

// ProxyState is the persistable view of a proxy.
type ProxyState struct {
	Class        string         `json:"class"`
	ID           string         `json:"id"`
	ActiveStates []string       `json:"active_states"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}

// NewProxy constructs a bare proxy for class with no registered states.
func NewProxy(class string, opts ...ProxyOption) *Proxy {
	cfg := applyProxyOptions(opts)
	p := &Proxy{
		class:  class,
		id:     cfg.objectID,
		states: make(map[string]State),
		attrs:  layering.Clone(cfg.attributes),
		cfg:    cfg,
	}
	if p.attrs == nil {
		p.attrs = make(map[string]any)
	}
	return p
}

// StatedClass returns the stated class identity of the proxy.
func (p *Proxy) StatedClass() string {
	return p.class
}

// ID returns the proxy identity token, generating it on first use.
func (p *Proxy) ID() string {
	if p.id == "" {
		p.id = uuid.NewString()
	}
	return p.id
}

// RegisterState stores state under name. Registering an existing name
// replaces the state but keeps its registration position.
func (p *Proxy) RegisterState(name string, state State) error {
	if name == "" {
		return newError(ErrInvalidArgument, withClass(p.class), withDetail("state name must not be empty"))
	}
	if state == nil {
		return newError(ErrIllegalState, withClass(p.class), withState(name), withDetail("state is nil"))
	}
	if _, exists := p.states[name]; !exists {
		p.order = append(p.order, name)
	}
	p.states[name] = state
	p.transition(verbStateRegistered, name)
	return nil
}

// UnregisterState removes name from the registry and from the active states.
func (p *Proxy) UnregisterState(name string) error {
	if _, exists := p.states[name]; !exists {
		return newError(ErrStateNotFound, withClass(p.class), withState(name))
	}
	delete(p.states, name)
	p.order = slices.DeleteFunc(p.order, func(n string) bool { return n == name })
	p.active = slices.DeleteFunc(p.active, func(n string) bool { return n == name })
	p.transition(verbStateUnregistered, name)
	return nil
}

// SwitchState disables every active state and enables name. The proxy is
// left untouched when name is not registered.
func (p *Proxy) SwitchState(name string) error {
	if _, exists := p.states[name]; !exists {
		return newError(ErrStateNotFound, withClass(p.class), withState(name))
	}
	p.active = []string{name}
	p.transition(verbStateSwitched, name)
	return nil
}

// EnableState appends name to the active states.
func (p *Proxy) EnableState(name string) error {
	if _, exists := p.states[name]; !exists {
		return newError(ErrStateNotFound, withClass(p.class), withState(name))
	}
	if slices.Contains(p.active, name) {
		return nil
	}
	p.active = append(p.active, name)
	p.transition(verbStateEnabled, name)
	return nil
}

// DisableState removes name from the active states. Absent names are ignored.
func (p *Proxy) DisableState(name string) {
	if !slices.Contains(p.active, name) {
		return
	}
	p.active = slices.DeleteFunc(p.active, func(n string) bool { return n == name })
	p.transition(verbStateDisabled, name)
}

// DisableAllStates empties the active states.
func (p *Proxy) DisableAllStates() {
	previous := p.active
	p.active = nil
	for _, name := range previous {
		p.transition(verbStateDisabled, name)
	}
}

// ListAvailableStates returns registered state names in registration order.
func (p *Proxy) ListAvailableStates() []string {
	return slices.Clone(p.order)
}

// ListActiveStates returns active state names in activation order.
func (p *Proxy) ListActiveStates() []string {
	return slices.Clone(p.active)
}

// InState reports whether name is active.
func (p *Proxy) InState(name string) bool {
	return slices.Contains(p.active, name)
}

// State returns the registered state for name.
func (p *Proxy) State(name string) (State, bool) {
	state, ok := p.states[name]
	return state, ok
}

// Attributes returns a deep copy of the proxy attributes.
func (p *Proxy) Attributes() map[string]any {
	return layering.Clone(p.attrs)
}

// Capture returns the persistable view of the proxy.
func (p *Proxy) Capture() ProxyState {
	return ProxyState{
		Class:        p.class,
		ID:           p.ID(),
		ActiveStates: p.ListActiveStates(),
		Attributes:   p.Attributes(),
	}
}

// Restore applies a captured view. Every active state must already be
// registered; nothing changes when validation fails.
func (p *Proxy) Restore(state ProxyState) error {
	if state.Class != "" && state.Class != p.class {
		return newError(ErrIllegalProxy, withClass(p.class),
			withDetail("snapshot belongs to class "+state.Class))
	}
	for _, name := range state.ActiveStates {
		if _, exists := p.states[name]; !exists {
			return newError(ErrStateNotFound, withClass(p.class), withState(name))
		}
	}
	if state.ID != "" {
		p.id = state.ID
	}
	p.attrs = layering.Clone(state.Attributes)
	if p.attrs == nil {
		p.attrs = make(map[string]any)
	}
	p.active = nil
	for _, name := range state.ActiveStates {
		if !slices.Contains(p.active, name) {
			p.active = append(p.active, name)
		}
	}
	p.transition(verbStateRestored, "")
	return nil
}

func (p *Proxy) mergeAttributes(defaults map[string]any) {
	if len(defaults) == 0 {
		return
	}
	p.attrs = layering.MergeLayers(p.attrs, defaults)
	if p.attrs == nil {
		p.attrs = make(map[string]any)
	}
}
