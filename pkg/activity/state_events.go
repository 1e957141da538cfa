package activity

import (
	"strings"
	"time"
)

// ObjectTypeProxy is the object type of every state lifecycle event.
const ObjectTypeProxy = "stated.proxy"

// StateEventInput carries the fields shared by state lifecycle events.
type StateEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	ObjectID   string
	Class      string
	State      string
	Active     []string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStateEvent constructs the event for verb (for example
// "state.enabled") from input.
func BuildStateEvent(verb string, input StateEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Class != "" {
		metadata = ensureMetadata(metadata)
		metadata["class"] = input.Class
	}
	if input.State != "" {
		metadata = ensureMetadata(metadata)
		metadata["state"] = input.State
	}
	if input.Active != nil {
		metadata = ensureMetadata(metadata)
		metadata["active_states"] = append([]string{}, input.Active...)
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Class)
	}
	if objectID == "" {
		objectID = ObjectTypeProxy
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeProxy,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
