package stated

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStateNotFound indicates a state name that is not registered, not
	// available to the stated class, or not active for explicit dispatch.
	ErrStateNotFound = errors.New("stated: state not found")
	// ErrMethodNotImplemented indicates no active state exposes the method in
	// the requested scope, or a method builder did not return a callable.
	ErrMethodNotImplemented = errors.New("stated: method not implemented")
	// ErrIllegalProxy indicates a proxy that cannot be initialized by a factory.
	ErrIllegalProxy = errors.New("stated: illegal proxy")
	// ErrIllegalState indicates a state collaborator with the wrong shape.
	ErrIllegalState = errors.New("stated: illegal state")
	// ErrIllegalFactory indicates a factory collaborator with the wrong shape.
	ErrIllegalFactory = errors.New("stated: illegal factory")
	// ErrUnavailableFactory indicates no factory is registered for a class.
	ErrUnavailableFactory = errors.New("stated: factory unavailable")
	// ErrUnavailableLoader indicates the loader cannot supply a stated class.
	ErrUnavailableLoader = errors.New("stated: loader unavailable")
	// ErrInvalidArgument indicates malformed input to an internal operation.
	ErrInvalidArgument = errors.New("stated: invalid argument")
)

// Error carries the names involved in a failed operation alongside the
// sentinel describing its kind. errors.Is matches the sentinel.
type Error struct {
	Kind   error
	Class  string
	State  string
	Method string
	Scope  Visibility
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	kind := "stated: error"
	if e.Kind != nil {
		kind = e.Kind.Error()
	}
	parts := make([]string, 0, 5)
	if e.Class != "" {
		parts = append(parts, fmt.Sprintf("class=%q", e.Class))
	}
	if e.State != "" {
		parts = append(parts, fmt.Sprintf("state=%q", e.State))
	}
	if e.Method != "" {
		parts = append(parts, fmt.Sprintf("method=%q", e.Method))
	}
	if e.Scope != 0 {
		parts = append(parts, "scope="+e.Scope.String())
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if len(parts) == 0 {
		return kind
	}
	return kind + ": " + strings.Join(parts, " ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

type errorOption func(*Error)

func withClass(class string) errorOption {
	return func(e *Error) { e.Class = class }
}

func withState(state string) errorOption {
	return func(e *Error) { e.State = state }
}

func withMethod(method string) errorOption {
	return func(e *Error) { e.Method = method }
}

func withScope(scope Visibility) errorOption {
	return func(e *Error) { e.Scope = scope }
}

func withDetail(detail string) errorOption {
	return func(e *Error) { e.Detail = detail }
}

func newError(kind error, opts ...errorOption) *Error {
	err := &Error{Kind: kind}
	for _, opt := range opts {
		if opt != nil {
			opt(err)
		}
	}
	return err
}
