package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-stated/pkg/activity"
	"github.com/goliatone/go-stated/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsStateEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildStateEvent("state.switched", activity.StateEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		ObjectID:   "proxy-7",
		Class:      "Article",
		State:      "Published",
		Active:     []string{"Published"},
		Channel:    "states",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity fields: %+v", record)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil user id, got %s", record.UserID)
	}
	if record.Verb != "state.switched" || record.ObjectType != activity.ObjectTypeProxy || record.ObjectID != "proxy-7" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "states" {
		t.Fatalf("expected channel states got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["class"] != "Article" || record.Data["state"] != "Published" {
		t.Fatalf("expected state metadata passthrough got %+v", record.Data)
	}
}

func TestHookNotifyFallsBackToConfiguredActor(t *testing.T) {
	sink := &recordingSink{}
	actor := uuid.New()
	hook := usersink.Hook{Sink: sink, ActorID: actor}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       "state.enabled",
		ObjectType: activity.ObjectTypeProxy,
		ObjectID:   "1",
		ActorID:    "not-a-uuid",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].ActorID != actor {
		t.Fatalf("expected fallback actor %s, got %s", actor, sink.records[0].ActorID)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	boom := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: boom}}

	err := hook.Notify(context.Background(), activity.Event{Verb: "state.enabled", ObjectType: activity.ObjectTypeProxy, ObjectID: "1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestHookWithoutSinkIsNoop(t *testing.T) {
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
