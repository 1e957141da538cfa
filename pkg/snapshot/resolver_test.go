package snapshot_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	stated "github.com/goliatone/go-stated"
	"github.com/goliatone/go-stated/pkg/snapshot"
)

func newArticleLoader(t *testing.T) *stated.Loader {
	t.Helper()
	loader := stated.NewLoader(stated.WithLoaderStartupRegistry(stated.NewStartupRegistry()))
	article := stated.NewClass("Article",
		stated.WithStates(
			stated.NewStateDefinition("Draft"),
			stated.NewStateDefinition("Published"),
			stated.NewStateDefinition("Featured"),
		),
		stated.WithDefaultState("Draft"),
		stated.WithDefaultAttributes(map[string]any{"title": "untitled"}),
	)
	if err := loader.Register(article); err != nil {
		t.Fatalf("register: %v", err)
	}
	return loader
}

func TestRefIdentifier(t *testing.T) {
	id, err := snapshot.Ref{Class: "Article", ObjectID: "42"}.Identifier()
	if err != nil || id != "Article/42" {
		t.Fatalf("unexpected identifier %q %v", id, err)
	}
	if _, err := (snapshot.Ref{ObjectID: "42"}).Identifier(); err == nil {
		t.Fatalf("expected missing class error")
	}
	if _, err := (snapshot.Ref{Class: "Article"}).Identifier(); err == nil {
		t.Fatalf("expected missing object id error")
	}
}

func TestResolverSaveRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	loader := newArticleLoader(t)
	store := snapshot.NewMemoryStore()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	resolver := snapshot.Resolver{Store: store, Builder: loader, Now: func() time.Time { return fixed }}

	proxy, err := loader.New("Article")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := proxy.SwitchState("Published"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if err := proxy.EnableState("Featured"); err != nil {
		t.Fatalf("enable: %v", err)
	}

	meta, err := resolver.Save(ctx, proxy, snapshot.Meta{Extra: map[string]string{"by": "test"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.ETag == "" || meta.SnapshotID == "" || !meta.UpdatedAt.Equal(fixed) || meta.Extra["by"] != "test" {
		t.Fatalf("unexpected meta %+v", meta)
	}

	restored, restoredMeta, err := resolver.Restore(ctx, snapshot.RefOf(proxy))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.ID() != proxy.ID() {
		t.Fatalf("expected id %q, got %q", proxy.ID(), restored.ID())
	}
	if want := []string{"Published", "Featured"}; !slices.Equal(restored.ListActiveStates(), want) {
		t.Fatalf("expected active %v, got %v", want, restored.ListActiveStates())
	}
	if restored.Attributes()["title"] != "untitled" {
		t.Fatalf("attributes not restored: %v", restored.Attributes())
	}
	if restoredMeta.ETag != meta.ETag {
		t.Fatalf("etag mismatch after restore")
	}
}

func TestResolverRestoreMissing(t *testing.T) {
	resolver := snapshot.Resolver{Store: snapshot.NewMemoryStore(), Builder: newArticleLoader(t)}
	_, _, err := resolver.Restore(context.Background(), snapshot.Ref{Class: "Article", ObjectID: "nope"})
	if !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolverMutate(t *testing.T) {
	ctx := context.Background()
	loader := newArticleLoader(t)
	store := snapshot.NewMemoryStore()
	resolver := snapshot.Resolver{Store: store, Builder: loader}

	proxy, err := loader.New("Article")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	first, err := resolver.Save(ctx, proxy, snapshot.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	ref := snapshot.RefOf(proxy)

	mutated, second, err := resolver.Mutate(ctx, ref, snapshot.Meta{ETag: first.ETag}, func(p *stated.Proxy) error {
		return p.SwitchState("Published")
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if !mutated.InState("Published") || second.ETag == first.ETag {
		t.Fatalf("expected published proxy and a new etag, got %v %q", mutated.ListActiveStates(), second.ETag)
	}

	_, _, err = resolver.Mutate(ctx, ref, snapshot.Meta{ETag: first.ETag}, func(p *stated.Proxy) error {
		return p.SwitchState("Draft")
	})
	if !errors.Is(err, snapshot.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}

	boom := errors.New("boom")
	if _, _, err := resolver.Mutate(ctx, ref, snapshot.Meta{}, func(*stated.Proxy) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}

	state, meta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: %v %v", ok, err)
	}
	if meta.ETag != second.ETag || !slices.Equal(state.ActiveStates, []string{"Published"}) {
		t.Fatalf("failed mutations must not save, got %v %q", state.ActiveStates, meta.ETag)
	}
}

func TestMemoryStoreIsolatesRecords(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	ref := snapshot.Ref{Class: "Article", ObjectID: "1"}
	state := stated.ProxyState{Class: "Article", ID: "1", ActiveStates: []string{"Draft"}, Attributes: map[string]any{"tags": []any{"a"}}}
	if _, err := store.Save(ctx, ref, state, snapshot.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	state.ActiveStates[0] = "Changed"
	state.Attributes["tags"].([]any)[0] = "changed"

	loaded, _, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: %v %v", ok, err)
	}
	if loaded.ActiveStates[0] != "Draft" || loaded.Attributes["tags"].([]any)[0] != "a" {
		t.Fatalf("store shares storage with caller: %+v", loaded)
	}
	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok, _ := store.Load(ctx, ref); ok {
		t.Fatalf("expected record to be deleted")
	}
}
