package stated

import (
	"errors"
	"reflect"
	"testing"
)

func newTracedProxy(t *testing.T) *Proxy {
	t.Helper()
	proxy := newProxyWithStates(t, "Child",
		NewStateDefinition("Draft").Protected("m", constant("draft")),
		NewStateDefinition("Published").Public("m", constant("published")).Public("share", constant(nil)),
	)
	inherited := NewState(NewStateDefinition("Base").Private("m", constant("base")), "Parent")
	inherited.SetPrivateMode(true)
	if err := proxy.RegisterState("Base", inherited); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, name := range []string{"Base", "Draft", "Published"} {
		if err := proxy.EnableState(name); err != nil {
			t.Fatalf("enable %s: %v", name, err)
		}
	}
	return proxy
}

func TestTraceMethodExplainsSelection(t *testing.T) {
	proxy := newTracedProxy(t)

	trace, err := proxy.TraceMethod("m", VisibilityPublic, "")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Selected != "Published" || trace.Origin != "Child" || trace.Scope != "public" {
		t.Fatalf("unexpected trace %+v", trace)
	}
	if len(trace.Steps) != 3 {
		t.Fatalf("expected a step per active state, got %+v", trace.Steps)
	}
	base := trace.Steps[0]
	if !base.Found || base.Visible || !base.PrivateMode || base.StatedClass != "Parent" || base.Visibility != "private" {
		t.Fatalf("unexpected base step %+v", base)
	}

	trace, _ = proxy.TraceMethod("m", VisibilityPrivate, "Child")
	if trace.Selected != "Draft" {
		t.Fatalf("expected Draft under private scope from Child, got %+v", trace)
	}
	trace, _ = proxy.TraceMethod("m", VisibilityPrivate, "Parent")
	if trace.Selected != "Base" {
		t.Fatalf("expected Base under private scope from Parent, got %+v", trace)
	}

	// The trace agrees with dispatch.
	if got, _ := proxy.CallAs("Parent", VisibilityPrivate, "m"); got != "base" {
		t.Fatalf("expected dispatch to select Base, got %v", got)
	}
}

func TestTraceMethodExplicitState(t *testing.T) {
	proxy := newTracedProxy(t)
	trace, err := proxy.TraceMethod("mOfDraft", VisibilityPublic, "")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Explicit != "Draft" || trace.Selected != "" || len(trace.Steps) != 1 || trace.Steps[0].Visible {
		t.Fatalf("unexpected explicit trace %+v", trace)
	}

	proxy.DisableState("Draft")
	trace, _ = proxy.TraceMethod("mOfDraft", VisibilityProtected, "")
	if len(trace.Steps) != 0 {
		t.Fatalf("expected no steps for inactive explicit state, got %+v", trace.Steps)
	}

	if _, err := proxy.TraceMethod("m", Visibility(5), ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

// opaqueState hides StateInstance.Lookup so the trace cannot inspect it.
type opaqueState struct {
	inner *StateInstance
}

func (s opaqueState) Name() string                { return s.inner.Name() }
func (s opaqueState) StatedClass() string         { return s.inner.StatedClass() }
func (s opaqueState) PrivateMode() bool           { return s.inner.PrivateMode() }
func (s opaqueState) SetPrivateMode(enabled bool) { s.inner.SetPrivateMode(enabled) }
func (s opaqueState) ListMethods() []string       { return s.inner.ListMethods() }

func (s opaqueState) Resolve(proxy *Proxy, method string) (BoundMethod, bool, error) {
	return s.inner.Resolve(proxy, method)
}

func (s opaqueState) Execute(proxy *Proxy, method string, args []any, scope Visibility, origin string, ret func(any)) (bool, error) {
	return s.inner.Execute(proxy, method, args, scope, origin, ret)
}

func TestTraceMarksOpaqueStatesUndetermined(t *testing.T) {
	proxy := NewProxy("Article")
	hidden := opaqueState{inner: NewState(NewStateDefinition("Hidden").Private("m", constant("hidden")), "Article")}
	if err := proxy.RegisterState("Hidden", hidden); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := proxy.RegisterState("Draft", NewState(NewStateDefinition("Draft").Public("m", constant("draft")), "Article")); err != nil {
		t.Fatalf("register: %v", err)
	}
	_ = proxy.EnableState("Hidden")
	_ = proxy.EnableState("Draft")

	trace, err := proxy.TraceMethod("m", VisibilityPublic, "")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Selected != "" || !trace.Undetermined {
		t.Fatalf("expected an undetermined trace, got %+v", trace)
	}
	if step := trace.Steps[0]; !step.Found || step.Visible || !step.Opaque {
		t.Fatalf("unexpected opaque step %+v", step)
	}
	// Dispatch skips the private method and reaches Draft.
	if got, err := proxy.Call("m"); err != nil || got != "draft" {
		t.Fatalf("expected draft, got %v (%v)", got, err)
	}

	proxy.DisableState("Hidden")
	trace, _ = proxy.TraceMethod("m", VisibilityPublic, "")
	if trace.Selected != "Draft" || trace.Undetermined {
		t.Fatalf("expected Draft once the opaque state is inactive, got %+v", trace)
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	trace, err := newTracedProxy(t).TraceMethod("m", VisibilityPublic, "")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if !reflect.DeepEqual(trace, decoded) {
		t.Fatalf("round trip mismatch:\nwant: %+v\n got: %+v", trace, decoded)
	}
	if _, err := TraceFromJSON([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDescribeListsRegisteredMethods(t *testing.T) {
	proxy := newTracedProxy(t)
	proxy.DisableState("Published")

	want := []MethodDescriptor{
		{State: "Draft", StatedClass: "Child", Method: "m", Visibility: "protected", Active: true},
		{State: "Published", StatedClass: "Child", Method: "m", Visibility: "public"},
		{State: "Published", StatedClass: "Child", Method: "share", Visibility: "public"},
		{State: "Base", StatedClass: "Parent", Method: "m", Visibility: "private", Active: true, PrivateMode: true},
	}
	if got := proxy.Describe(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
