package stated

import (
	"context"

	"github.com/goliatone/go-stated/pkg/activity"
)

// DefaultActivityChannel is the channel stamped on state events.
const DefaultActivityChannel = "states"

const (
	verbStateRegistered   = "state.registered"
	verbStateUnregistered = "state.unregistered"
	verbStateEnabled      = "state.enabled"
	verbStateDisabled     = "state.disabled"
	verbStateSwitched     = "state.switched"
	verbStateRestored     = "state.restored"
)

// ActivityHooks returns a copy of the hooks configured on the proxy.
func (p *Proxy) ActivityHooks() activity.Hooks {
	if p == nil {
		return nil
	}
	return p.cfg.hooks.Compact()
}

// transition logs a state change and notifies activity hooks. Hook failures
// are reported to the logger and never undo the change.
func (p *Proxy) transition(verb, state string) {
	event := TransitionLogEvent{
		Class:   p.class,
		ProxyID: p.ID(),
		Verb:    verb,
		State:   state,
		Active:  p.ListActiveStates(),
	}
	if p.cfg.emitter.Enabled() {
		event.Err = p.cfg.emitter.Emit(context.Background(), activity.BuildStateEvent(verb, activity.StateEventInput{
			ObjectID: event.ProxyID,
			Class:    p.class,
			State:    state,
			Active:   event.Active,
		}))
	}
	p.cfg.logger.LogTransition(event)
}
