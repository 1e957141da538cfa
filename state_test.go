package stated

import (
	"errors"
	"slices"
	"testing"
)

func TestStateResolveCachesPerProxy(t *testing.T) {
	builds := 0
	def := NewStateDefinition("Draft").Public("title", func() Callable {
		builds++
		return func(self *Self, _ ...any) (any, error) {
			return self.Get("title"), nil
		}
	})
	state := NewState(def, "Article")

	first := NewProxy("Article", WithAttributes(map[string]any{"title": "first"}))
	for range 3 {
		bound, ok, err := state.Resolve(first, "title")
		if err != nil || !ok {
			t.Fatalf("resolve: ok=%v err=%v", ok, err)
		}
		if value, _ := bound(); value != "first" {
			t.Fatalf("expected bound to first proxy, got %v", value)
		}
	}
	if builds != 1 {
		t.Fatalf("expected builder to run once, ran %d times", builds)
	}

	second := NewProxy("Article", WithAttributes(map[string]any{"title": "second"}))
	bound, _, _ := state.Resolve(second, "title")
	if value, _ := bound(); value != "second" {
		t.Fatalf("expected rebinding to second proxy, got %v", value)
	}
	if builds != 2 {
		t.Fatalf("expected builder to rerun for a new proxy, ran %d times", builds)
	}
}

func TestStateResolveMissingAndBrokenBuilders(t *testing.T) {
	def := NewStateDefinition("Draft").
		Public("broken", func() Callable { return nil }).
		Static("create", constant("static"))
	state := NewState(def, "Article")
	proxy := NewProxy("Article")

	if _, ok, err := state.Resolve(proxy, "missing"); ok || err != nil {
		t.Fatalf("expected missing method to be not found, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := state.Resolve(proxy, "create"); ok || err != nil {
		t.Fatalf("expected static method to be not found, got ok=%v err=%v", ok, err)
	}
	if _, _, err := state.Resolve(proxy, "broken"); !errors.Is(err, ErrMethodNotImplemented) {
		t.Fatalf("expected ErrMethodNotImplemented, got %v", err)
	}
	if _, _, err := state.Resolve(nil, "broken"); !errors.Is(err, ErrIllegalProxy) {
		t.Fatalf("expected ErrIllegalProxy, got %v", err)
	}
}

func TestStateListMethodsSkipsStaticAndReserved(t *testing.T) {
	def := NewStateDefinition("Draft").
		Public("publish", constant(nil)).
		Private("audit", constant(nil)).
		Static("create", constant(nil)).
		Public("Name", constant("shadow")).
		Public("SetPrivateMode", constant(nil))
	state := NewState(def, "Article")

	if got, want := state.ListMethods(), []string{"audit", "publish"}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if state.Name() != "Draft" || state.StatedClass() != "Article" {
		t.Fatalf("unexpected identity %s/%s", state.StatedClass(), state.Name())
	}
}

func TestStateExecuteTreatsHiddenAsMissing(t *testing.T) {
	def := NewStateDefinition("Draft").
		Public("open", constant("open")).
		Private("secret", constant("secret"))
	state := NewState(def, "Parent")
	state.SetPrivateMode(true)
	proxy := NewProxy("Child")

	var got any
	capture := func(value any) { got = value }

	handled, err := state.Execute(proxy, "secret", nil, VisibilityPrivate, "Child", capture)
	if handled || err != nil || got != nil {
		t.Fatalf("expected hidden private method, got handled=%v err=%v value=%v", handled, err, got)
	}
	handled, err = state.Execute(proxy, "secret", nil, VisibilityPrivate, "Parent", capture)
	if !handled || err != nil || got != "secret" {
		t.Fatalf("expected owner to reach private method, got handled=%v err=%v value=%v", handled, err, got)
	}
	handled, err = state.Execute(proxy, "open", nil, VisibilityPublic, "Child", capture)
	if !handled || err != nil || got != "open" {
		t.Fatalf("expected public method, got handled=%v err=%v value=%v", handled, err, got)
	}
	if _, err := state.Execute(proxy, "open", nil, Visibility(0), "Child", capture); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for bad scope, got %v", err)
	}
}

func TestStateDefinitionRejectsInvalidMethods(t *testing.T) {
	def := NewStateDefinition("Draft")
	cases := []Method{
		{Name: "", Visibility: VisibilityPublic, Build: constant(nil)},
		{Name: "m", Visibility: Visibility(9), Build: constant(nil)},
		{Name: "m", Visibility: VisibilityPublic},
	}
	for _, method := range cases {
		if err := def.Define(method); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument for %+v, got %v", method, err)
		}
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected chained definition with nil builder to panic")
		}
	}()
	def.Public("m", nil)
}
