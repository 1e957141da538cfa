package stated

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/goliatone/go-stated/pkg/activity"
)

func TestTransitionsNotifyActivityHooks(t *testing.T) {
	capture := &activity.CaptureHook{}
	proxy := NewProxy("Article", WithObjectID("a-1"), WithActivityHooks(activity.Hooks{nil, capture}))
	def := NewStateDefinition("Draft")

	_ = proxy.RegisterState("Draft", NewState(def, "Article"))
	_ = proxy.RegisterState("Published", NewState(def, "Article"))
	_ = proxy.EnableState("Draft")
	_ = proxy.EnableState("Draft")
	_ = proxy.SwitchState("Published")
	proxy.DisableState("Published")
	proxy.DisableState("Published")
	_ = proxy.EnableState("Draft")
	proxy.DisableAllStates()
	_ = proxy.UnregisterState("Published")

	want := []string{
		"state.registered", "state.registered",
		"state.enabled",
		"state.switched",
		"state.disabled",
		"state.enabled",
		"state.disabled",
		"state.unregistered",
	}
	if got := capture.Verbs(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	switched := capture.Events()[3]
	if switched.ObjectID != "a-1" || switched.ObjectType != activity.ObjectTypeProxy || switched.Channel != DefaultActivityChannel {
		t.Fatalf("unexpected event identity %+v", switched)
	}
	if switched.Metadata["class"] != "Article" || switched.Metadata["state"] != "Published" {
		t.Fatalf("unexpected metadata %v", switched.Metadata)
	}
	if active, _ := switched.Metadata["active_states"].([]string); !slices.Equal(active, []string{"Published"}) {
		t.Fatalf("unexpected active states metadata %v", switched.Metadata["active_states"])
	}
}

func TestHookFailuresDoNotUndoTransitions(t *testing.T) {
	boom := errors.New("boom")
	capture := &activity.CaptureHook{Err: boom}
	var logged []TransitionLogEvent
	proxy := NewProxy("Article",
		WithActivityHooks(activity.Hooks{capture}),
		WithLogger(LoggerFuncs{Transition: func(event TransitionLogEvent) {
			logged = append(logged, event)
		}}),
	)
	if err := proxy.RegisterState("Draft", NewState(NewStateDefinition("Draft"), "Article")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := proxy.EnableState("Draft"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !proxy.InState("Draft") {
		t.Fatalf("expected transition to stick")
	}
	if len(logged) != 2 || !errors.Is(logged[1].Err, boom) || logged[1].Verb != "state.enabled" {
		t.Fatalf("expected hook error to be logged, got %+v", logged)
	}
}

func TestActivityCanBeDisabled(t *testing.T) {
	capture := &activity.CaptureHook{}
	proxy := NewProxy("Article",
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityConfig(activity.Config{Enabled: false}),
	)
	_ = proxy.RegisterState("Draft", NewState(NewStateDefinition("Draft"), "Article"))
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events, got %v", capture.Verbs())
	}

	loaderCapture := &activity.CaptureHook{}
	loader := NewLoader(
		WithLoaderStartupRegistry(NewStartupRegistry()),
		WithLoaderConfig(Config{ActivityEnabled: false}),
		WithLoaderProxyOptions(WithActivityHooks(activity.Hooks{loaderCapture})),
	)
	if err := loader.Register(newArticleClass()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := loader.New("Article"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(loaderCapture.Events()) != 0 {
		t.Fatalf("expected loader config to disable activity, got %v", loaderCapture.Verbs())
	}
}

func TestActivityHooksAreCopied(t *testing.T) {
	hook := activity.HookFunc(func(context.Context, activity.Event) error { return nil })
	proxy := NewProxy("Article", WithActivityHooks(activity.Hooks{nil, hook}))

	hooks := proxy.ActivityHooks()
	if len(hooks) != 1 {
		t.Fatalf("expected nil hooks to be dropped, got %d", len(hooks))
	}
	hooks[0] = nil
	if again := proxy.ActivityHooks(); len(again) != 1 || again[0] == nil {
		t.Fatalf("expected hooks unaffected by caller mutation")
	}
	if NewProxy("Article").ActivityHooks() != nil {
		t.Fatalf("expected nil hooks by default")
	}
}

func TestDispatchIsLogged(t *testing.T) {
	var events []DispatchLogEvent
	proxy := NewProxy("Article", WithObjectID("a-1"), WithLogger(LoggerFuncs{
		Dispatch: func(event DispatchLogEvent) { events = append(events, event) },
	}))
	_ = proxy.RegisterState("Draft", NewState(NewStateDefinition("Draft").Public("m", constant(1)), "Article"))
	_ = proxy.EnableState("Draft")

	_, _ = proxy.Call("m")
	_, _ = proxy.Call("missing")

	if len(events) != 2 {
		t.Fatalf("expected 2 dispatch events, got %d", len(events))
	}
	if events[0].State != "Draft" || events[0].Err != nil || events[0].ProxyID != "a-1" || events[0].Scope != VisibilityPublic {
		t.Fatalf("unexpected success event %+v", events[0])
	}
	if events[1].Method != "missing" || !errors.Is(events[1].Err, ErrMethodNotImplemented) {
		t.Fatalf("unexpected failure event %+v", events[1])
	}
}
