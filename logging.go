package stated

import "time"

// DispatchLogEvent describes one resolved (or failed) method call.
type DispatchLogEvent struct {
	Class    string
	ProxyID  string
	Method   string
	State    string
	Scope    Visibility
	Duration time.Duration
	Err      error
}

// TransitionLogEvent describes a change to the registered or active states.
type TransitionLogEvent struct {
	Class   string
	ProxyID string
	Verb    string
	State   string
	Active  []string
	Err     error
}

// Logger records dispatch and transition events.
type Logger interface {
	LogDispatch(DispatchLogEvent)
	LogTransition(TransitionLogEvent)
}

// LoggerFuncs adapts plain functions to Logger. Nil fields are skipped.
type LoggerFuncs struct {
	Dispatch   func(DispatchLogEvent)
	Transition func(TransitionLogEvent)
}

// LogDispatch implements Logger.
func (f LoggerFuncs) LogDispatch(event DispatchLogEvent) {
	if f.Dispatch != nil {
		f.Dispatch(event)
	}
}

// LogTransition implements Logger.
func (f LoggerFuncs) LogTransition(event TransitionLogEvent) {
	if f.Transition != nil {
		f.Transition(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogDispatch(DispatchLogEvent)     {}
func (noopLogger) LogTransition(TransitionLogEvent) {}
