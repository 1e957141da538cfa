package stated

import (
	"encoding/json"
	"slices"
)

// MethodInspector is implemented by states able to describe a method without
// building or running it.
type MethodInspector interface {
	Lookup(method string) (Method, bool)
}

// Lookup returns the dispatchable method definition for name.
func (s *StateInstance) Lookup(method string) (Method, bool) {
	return s.definition.lookup(method)
}

// Trace explains how a method name would resolve against the active states.
type Trace struct {
	Method   string `json:"method"`
	Scope    string `json:"scope"`
	Origin   string `json:"origin"`
	Explicit string `json:"explicit_state,omitempty"`
	Selected string `json:"selected,omitempty"`
	// Undetermined is set when a state whose visibility cannot be inspected
	// would be asked before any selection. Selected is empty then.
	Undetermined bool        `json:"undetermined,omitempty"`
	Steps        []TraceStep `json:"steps"`
}

// TraceStep records how one active state answered the lookup.
type TraceStep struct {
	State       string `json:"state"`
	StatedClass string `json:"stated_class"`
	PrivateMode bool   `json:"private_mode"`
	Found       bool   `json:"found"`
	Visibility  string `json:"visibility,omitempty"`
	Visible     bool   `json:"visible"`
	// Opaque marks a state that lists the method but cannot report its
	// visibility without running it.
	Opaque bool `json:"opaque,omitempty"`
}

// TraceMethod resolves method like Call would with the given scope and
// origin, without invoking anything. An empty origin means the proxy class.
func (p *Proxy) TraceMethod(method string, scope Visibility, origin string) (Trace, error) {
	if !scope.Valid() {
		return Trace{}, newError(ErrInvalidArgument, withClass(p.class), withMethod(method), withScope(scope))
	}
	if origin == "" {
		origin = p.class
	}
	trace := Trace{Method: method, Scope: scope.String(), Origin: origin}
	candidates := slices.Clone(p.active)
	target := method
	if explicitMethod, stateName, ok := p.splitExplicitState(method); ok {
		trace.Explicit = stateName
		target = explicitMethod
		candidates = nil
		if p.InState(stateName) {
			candidates = []string{stateName}
		}
	}

	for _, name := range candidates {
		state, ok := p.states[name]
		if !ok {
			continue
		}
		step := TraceStep{State: name, StatedClass: state.StatedClass(), PrivateMode: state.PrivateMode()}
		if inspector, ok := state.(MethodInspector); ok {
			if def, found := inspector.Lookup(target); found {
				step.Found = true
				step.Visibility = def.Visibility.String()
				step.Visible, _ = IsVisible(def.Visibility, state.PrivateMode(), state.StatedClass(), origin, scope)
			}
		} else {
			step.Found = slices.Contains(state.ListMethods(), target)
			step.Opaque = step.Found
		}
		trace.Steps = append(trace.Steps, step)
		if trace.Selected != "" || trace.Undetermined {
			continue
		}
		switch {
		case step.Opaque:
			trace.Undetermined = true
		case step.Found && step.Visible:
			trace.Selected = name
		}
	}
	return trace, nil
}

// ToJSON serialises the trace.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
