package snapshot

import (
	"context"
	"maps"
	"sync"

	stated "github.com/goliatone/go-stated"
	"github.com/goliatone/go-stated/layering"
)

// MemoryStore is an in-memory Store keyed by Ref.Identifier.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	state stated.ProxyState
	meta  Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (stated.ProxyState, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return stated.ProxyState{}, Meta{}, false, err
	}
	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return stated.ProxyState{}, Meta{}, false, nil
	}
	return cloneState(record.state), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, state stated.ProxyState, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	s.mu.Lock()
	s.records[key] = memoryRecord{state: cloneState(state), meta: cloneMeta(meta)}
	s.mu.Unlock()
	return cloneMeta(meta), nil
}

func (s *MemoryStore) Delete(_ context.Context, ref Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

func cloneState(state stated.ProxyState) stated.ProxyState {
	out := state
	out.ActiveStates = append([]string(nil), state.ActiveStates...)
	out.Attributes = layering.Clone(state.Attributes)
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra != nil {
		out.Extra = maps.Clone(meta.Extra)
	}
	return out
}
