package layering

import (
	"reflect"
	"testing"
)

func TestMergeLayersStrongestWins(t *testing.T) {
	child := map[string]any{"title": "draft", "meta": map[string]any{"lang": "en"}}
	parent := map[string]any{"title": "untitled", "views": 0, "meta": map[string]any{"lang": "fr", "tags": []any{"a"}}}

	got := MergeLayers(child, parent)
	want := map[string]any{
		"title": "draft",
		"views": 0,
		"meta":  map[string]any{"lang": "en", "tags": []any{"a"}},
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("merged mismatch:\nwant: %#v\n got: %#v", want, got)
	}

	got["meta"].(map[string]any)["tags"].([]any)[0] = "changed"
	if parent["meta"].(map[string]any)["tags"].([]any)[0] != "a" {
		t.Fatalf("merge must not share storage with inputs")
	}
}

func TestMergeLayersSkipsNilLayers(t *testing.T) {
	got := MergeLayers(nil, map[string]any{"a": 1}, nil)
	if !reflect.DeepEqual(map[string]any{"a": 1}, got) {
		t.Fatalf("unexpected merge result %#v", got)
	}
	if MergeLayers() != nil {
		t.Fatalf("expected nil for no layers")
	}
}

func TestMergeLayersScalarReplacesMap(t *testing.T) {
	got := MergeLayers(map[string]any{"meta": "flat"}, map[string]any{"meta": map[string]any{"k": 1}})
	if got["meta"] != "flat" {
		t.Fatalf("expected stronger scalar to replace map, got %#v", got["meta"])
	}
}

func TestCloneDeepCopiesNestedValues(t *testing.T) {
	type record struct {
		Tags []string
		Meta map[string]int
	}
	src := map[string]any{
		"record": &record{Tags: []string{"x"}, Meta: map[string]int{"n": 1}},
		"list":   []any{map[string]any{"k": "v"}},
	}

	clone := Clone(src)
	if !reflect.DeepEqual(src, clone) {
		t.Fatalf("clone differs from source")
	}

	clone["record"].(*record).Tags[0] = "y"
	clone["list"].([]any)[0].(map[string]any)["k"] = "w"
	if src["record"].(*record).Tags[0] != "x" {
		t.Fatalf("pointer target shared with clone")
	}
	if src["list"].([]any)[0].(map[string]any)["k"] != "v" {
		t.Fatalf("nested map shared with clone")
	}
}

func TestCloneNil(t *testing.T) {
	var m map[string]any
	if Clone(m) != nil {
		t.Fatalf("expected nil clone")
	}
}
