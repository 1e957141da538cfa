package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-stated/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards state lifecycle events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// ActorID is used when an event carries no actor of its own.
	ActorID uuid.UUID
}

// Notify maps the event into an ActivityRecord and logs it on the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	if !event.Routable() {
		return nil
	}
	normalized := event.Normalize()
	if ctx == nil {
		ctx = context.Background()
	}

	actorID := parseUUID(normalized.ActorID)
	if actorID == uuid.Nil {
		actorID = h.ActorID
	}

	record := usertypes.ActivityRecord{
		ActorID:    actorID,
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       normalized.Metadata,
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	return h.Sink.Log(ctx, record)
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
