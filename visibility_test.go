package stated

import (
	"errors"
	"testing"
)

func TestIsVisibleScopeMatrix(t *testing.T) {
	cases := []struct {
		scope  Visibility
		target Visibility
		want   bool
	}{
		{VisibilityPublic, VisibilityPublic, true},
		{VisibilityPublic, VisibilityProtected, false},
		{VisibilityPublic, VisibilityPrivate, false},
		{VisibilityProtected, VisibilityPublic, true},
		{VisibilityProtected, VisibilityProtected, true},
		{VisibilityProtected, VisibilityPrivate, false},
		{VisibilityPrivate, VisibilityPublic, true},
		{VisibilityPrivate, VisibilityProtected, true},
		{VisibilityPrivate, VisibilityPrivate, true},
	}
	for _, tc := range cases {
		got, err := IsVisible(tc.target, false, "Article", "Article", tc.scope)
		if err != nil {
			t.Fatalf("scope=%s target=%s: %v", tc.scope, tc.target, err)
		}
		if got != tc.want {
			t.Fatalf("scope=%s target=%s: expected %v, got %v", tc.scope, tc.target, tc.want, got)
		}
	}
}

func TestIsVisiblePrivateModeMatrix(t *testing.T) {
	cases := []struct {
		privateMode bool
		origin      string
		want        bool
	}{
		{false, "Parent", true},
		{false, "Child", true},
		{true, "Parent", true},
		{true, "Child", false},
	}
	for _, tc := range cases {
		got, err := IsVisible(VisibilityPrivate, tc.privateMode, "Parent", tc.origin, VisibilityPrivate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("privateMode=%v origin=%s: expected %v, got %v", tc.privateMode, tc.origin, tc.want, got)
		}
	}

	// Private mode only narrows private methods.
	for _, target := range []Visibility{VisibilityPublic, VisibilityProtected} {
		if ok, _ := IsVisible(target, true, "Parent", "Child", VisibilityPrivate); !ok {
			t.Fatalf("expected %s method of inherited state to stay visible", target)
		}
	}
}

func TestIsVisibleRejectsUnknownScope(t *testing.T) {
	for _, scope := range []Visibility{0, 4, -1} {
		_, err := IsVisible(VisibilityPublic, false, "A", "A", scope)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("scope %d: expected ErrInvalidArgument, got %v", scope, err)
		}
	}
}

func TestParseVisibility(t *testing.T) {
	for input, want := range map[string]Visibility{
		"public":      VisibilityPublic,
		" Protected ": VisibilityProtected,
		"PRIVATE":     VisibilityPrivate,
	} {
		got, err := ParseVisibility(input)
		if err != nil || got != want {
			t.Fatalf("parse %q: expected %s, got %s (%v)", input, want, got, err)
		}
		if got.String() != want.String() {
			t.Fatalf("string mismatch for %q", input)
		}
	}
	if _, err := ParseVisibility("internal"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if Visibility(7).Valid() || Visibility(7).String() != "visibility(7)" {
		t.Fatalf("unexpected handling of unknown visibility")
	}
}
