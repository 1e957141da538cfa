package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stated "github.com/goliatone/go-stated"
	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("snapshot: not found")
	ErrETagMismatch = errors.New("snapshot: etag mismatch")
)

// Ref identifies the snapshot of one proxy.
type Ref struct {
	Class    string
	ObjectID string
}

// RefOf returns the Ref of proxy.
func RefOf(proxy *stated.Proxy) Ref {
	return Ref{Class: proxy.StatedClass(), ObjectID: proxy.ID()}
}

// Identifier returns the canonical storage key "<class>/<object id>".
func (r Ref) Identifier() (string, error) {
	if r.Class == "" {
		return "", fmt.Errorf("snapshot: class is required")
	}
	if r.ObjectID == "" {
		return "", fmt.Errorf("snapshot: object id is required for class %q", r.Class)
	}
	return r.Class + "/" + r.ObjectID, nil
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one snapshot per Ref.
type Store interface {
	Load(ctx context.Context, ref Ref) (state stated.ProxyState, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, state stated.ProxyState, meta Meta) (Meta, error)
}

// Builder creates started proxies. *stated.Loader implements it.
type Builder interface {
	Build(class, stateName string, args ...any) (*stated.Proxy, error)
}

var _ Builder = (*stated.Loader)(nil)

// Mutator changes a restored proxy before it is saved again.
type Mutator func(*stated.Proxy) error

// Resolver saves proxies to a Store and rebuilds them through a Builder.
type Resolver struct {
	Store   Store
	Builder Builder
	// Now stamps Meta.UpdatedAt; time.Now when nil.
	Now func() time.Time
}

// Save captures proxy and stores it. When meta.ETag is set it must match the
// stored ETag.
func (r Resolver) Save(ctx context.Context, proxy *stated.Proxy, meta Meta) (Meta, error) {
	if r.Store == nil {
		return Meta{}, fmt.Errorf("snapshot: store is required")
	}
	if proxy == nil {
		return Meta{}, fmt.Errorf("snapshot: proxy is required")
	}
	ref := RefOf(proxy)
	_, loaded, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("snapshot: load %q: %w", ref.ObjectID, err)
	}
	if !ok {
		loaded = Meta{}
	}
	if err := checkETag(meta, loaded); err != nil {
		return loaded, err
	}
	return r.save(ctx, ref, proxy.Capture(), loaded, meta)
}

// Restore rebuilds the proxy stored under ref.
func (r Resolver) Restore(ctx context.Context, ref Ref) (*stated.Proxy, Meta, error) {
	if r.Store == nil {
		return nil, Meta{}, fmt.Errorf("snapshot: store is required")
	}
	if r.Builder == nil {
		return nil, Meta{}, fmt.Errorf("snapshot: builder is required")
	}
	state, meta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("snapshot: load %q: %w", ref.ObjectID, err)
	}
	if !ok {
		return nil, Meta{}, fmt.Errorf("%w: %s/%s", ErrNotFound, ref.Class, ref.ObjectID)
	}
	proxy, err := r.Builder.Build(ref.Class, "")
	if err != nil {
		return nil, meta, fmt.Errorf("snapshot: build %q: %w", ref.Class, err)
	}
	if state.ID == "" {
		state.ID = ref.ObjectID
	}
	if err := proxy.Restore(state); err != nil {
		return nil, meta, fmt.Errorf("snapshot: restore %q: %w", ref.ObjectID, err)
	}
	return proxy, meta, nil
}

// Mutate restores the proxy under ref, applies fn and saves the result.
// Nothing is saved when fn fails or meta.ETag is stale.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (*stated.Proxy, Meta, error) {
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("snapshot: mutator is required")
	}
	proxy, loaded, err := r.Restore(ctx, ref)
	if err != nil {
		return nil, Meta{}, err
	}
	if err := checkETag(meta, loaded); err != nil {
		return nil, loaded, err
	}
	if err := fn(proxy); err != nil {
		return nil, loaded, err
	}
	if RefOf(proxy) != ref {
		return nil, loaded, fmt.Errorf("snapshot: mutator changed proxy identity to %s/%s", proxy.StatedClass(), proxy.ID())
	}
	saved, err := r.save(ctx, ref, proxy.Capture(), loaded, meta)
	if err != nil {
		return nil, loaded, err
	}
	return proxy, saved, nil
}

func (r Resolver) save(ctx context.Context, ref Ref, state stated.ProxyState, loaded, meta Meta) (Meta, error) {
	next := mergeMeta(loaded, meta)
	etag, err := contentETag(state)
	if err != nil {
		return loaded, err
	}
	next.ETag = etag
	next.SnapshotID = uuid.NewString()
	next.UpdatedAt = r.now()
	saved, err := r.Store.Save(ctx, ref, state, next)
	if err != nil {
		return loaded, fmt.Errorf("snapshot: save %q: %w", ref.ObjectID, err)
	}
	return saved, nil
}

func (r Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func checkETag(expected, stored Meta) error {
	if expected.ETag != "" && stored.ETag != "" && expected.ETag != stored.ETag {
		return fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expected.ETag, stored.ETag)
	}
	return nil
}

func contentETag(state stated.ProxyState) (string, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("snapshot: encode state: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8]), nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
