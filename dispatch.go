package stated

import (
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// stateMarker separates a method from an explicit state name, as in
// "publishOfDraft".
const stateMarker = "Of"

// Call dispatches method from outside the composition, so only public methods
// are reachable.
func (p *Proxy) Call(method string, args ...any) (any, error) {
	return p.dispatch(method, args, VisibilityPublic, p.class)
}

// CallAs dispatches method as if called from origin with the given scope.
func (p *Proxy) CallAs(origin string, scope Visibility, method string, args ...any) (any, error) {
	return p.dispatch(method, args, scope, origin)
}

func (p *Proxy) dispatch(method string, args []any, scope Visibility, origin string) (any, error) {
	if !scope.Valid() {
		return nil, newError(ErrInvalidArgument, withClass(p.class), withMethod(method), withScope(scope), withDetail("unsupported scope"))
	}
	start := time.Now()
	result, stateName, err := p.findAndCall(method, args, scope, origin)
	p.cfg.logger.LogDispatch(DispatchLogEvent{
		Class:    p.class,
		ProxyID:  p.ID(),
		Method:   method,
		State:    stateName,
		Scope:    scope,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Proxy) findAndCall(method string, args []any, scope Visibility, origin string) (any, string, error) {
	var result any
	capture := func(value any) { result = value }

	if target, stateName, ok := p.splitExplicitState(method); ok {
		if !p.InState(stateName) {
			return nil, stateName, newError(ErrStateNotFound, withClass(p.class), withState(stateName), withMethod(target))
		}
		handled, err := p.states[stateName].Execute(p, target, args, scope, origin, capture)
		if err != nil {
			return nil, stateName, err
		}
		if !handled {
			return nil, stateName, newError(ErrMethodNotImplemented, withClass(p.class), withState(stateName), withMethod(target), withScope(scope))
		}
		return result, stateName, nil
	}

	// A method may switch states while running; iterate over a copy.
	for _, name := range slices.Clone(p.active) {
		state, ok := p.states[name]
		if !ok {
			continue
		}
		handled, err := state.Execute(p, method, args, scope, origin, capture)
		if err != nil {
			return nil, name, err
		}
		if handled {
			return result, name, nil
		}
	}
	return nil, "", newError(ErrMethodNotImplemented, withClass(p.class), withMethod(method), withScope(scope))
}

// splitExplicitState recognizes "<method>Of<State>" where State is a
// registered state. Names whose suffix matches no registered state, such as
// "countOfItems", are plain method names. With several markers the first one
// naming a registered state wins.
func (p *Proxy) splitExplicitState(method string) (string, string, bool) {
	for idx := strings.Index(method, stateMarker); idx >= 0; {
		suffix := method[idx+len(stateMarker):]
		if idx > 0 && startsUpper(suffix) {
			if _, registered := p.states[suffix]; registered {
				return method[:idx], suffix, true
			}
		}
		next := strings.Index(suffix, stateMarker)
		if next < 0 {
			break
		}
		idx += len(stateMarker) + next
	}
	return "", "", false
}

func startsUpper(value string) bool {
	r, size := utf8.DecodeRuneInString(value)
	return size > 0 && unicode.IsUpper(r)
}
