package activity

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Event is one state lifecycle change on a proxy, as seen by hooks.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Normalize returns a copy with trimmed identifiers, its own metadata map and
// a timestamp.
func (e Event) Normalize() Event {
	out := e
	for _, field := range []*string{&out.Verb, &out.ActorID, &out.UserID, &out.TenantID, &out.ObjectType, &out.ObjectID, &out.Channel} {
		*field = strings.TrimSpace(*field)
	}
	if len(e.Metadata) > 0 {
		out.Metadata = maps.Clone(e.Metadata)
	} else {
		out.Metadata = nil
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

// Routable reports whether the event names a verb and an object.
func (e Event) Routable() bool {
	return strings.TrimSpace(e.Verb) != "" &&
		strings.TrimSpace(e.ObjectType) != "" &&
		strings.TrimSpace(e.ObjectID) != ""
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks is an ordered set of hooks notified together.
type Hooks []ActivityHook

// Compact returns the non-nil hooks in a new slice, or nil when none remain.
func (h Hooks) Compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

// DeliveryError collects the hooks that rejected an event. Every hook is
// notified even after a failure.
type DeliveryError struct {
	Verb     string
	Failures []error
}

func (e *DeliveryError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("activity: %d hook(s) failed for %s: %s", len(e.Failures), e.Verb, strings.Join(parts, "; "))
}

func (e *DeliveryError) Unwrap() []error { return e.Failures }

// Notify normalizes event and hands it to each hook in order. Events that are
// not routable are dropped silently.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 || !event.Routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event = event.Normalize()

	var failures []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &DeliveryError{Verb: event.Verb, Failures: failures}
}
