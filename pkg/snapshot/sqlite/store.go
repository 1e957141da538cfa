// Package sqlite stores proxy snapshots in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	stated "github.com/goliatone/go-stated"
	"github.com/goliatone/go-stated/internal/hydrate"
	"github.com/goliatone/go-stated/pkg/snapshot"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS proxy_snapshots (
    snapshot_key TEXT PRIMARY KEY,
    class        TEXT NOT NULL,
    object_id    TEXT NOT NULL,
    payload_json TEXT NOT NULL,
    snapshot_id  TEXT NOT NULL DEFAULT '',
    etag         TEXT NOT NULL DEFAULT '',
    extra_json   TEXT NOT NULL DEFAULT '{}',
    updated_at   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS proxy_snapshots_class ON proxy_snapshots (class);
`

// Store is a snapshot.Store backed by SQLite.
type Store struct {
	sqlDB   *sql.DB
	decoder *hydrate.Decoder[stated.ProxyState]
}

var _ snapshot.Store = (*Store)(nil)

// Open opens the database at path and creates the schema when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, decoder: newDecoder()}, nil
}

// newDecoder checks that a stored payload belongs to the class it is filed
// under and fills the identity of older payloads saved without it.
func newDecoder() *hydrate.Decoder[stated.ProxyState] {
	return hydrate.NewDecoder(
		hydrate.Migrate[stated.ProxyState](func(rec hydrate.Record, payload map[string]any) (map[string]any, error) {
			if class, ok := payload["class"].(string); ok && class != "" && class != rec.Class {
				return nil, fmt.Errorf("payload class %q filed under %q", class, rec.Class)
			}
			return payload, nil
		}),
		hydrate.Validate(func(rec hydrate.Record, state *stated.ProxyState) error {
			if state.Class == "" {
				state.Class = rec.Class
			}
			if state.ID == "" {
				_, id, _ := strings.Cut(rec.Key, "/")
				state.ID = id
			}
			return nil
		}),
	)
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Load(ctx context.Context, ref snapshot.Ref) (stated.ProxyState, snapshot.Meta, bool, error) {
	if s == nil || s.sqlDB == nil {
		return stated.ProxyState{}, snapshot.Meta{}, false, fmt.Errorf("storage is not configured")
	}
	key, err := ref.Identifier()
	if err != nil {
		return stated.ProxyState{}, snapshot.Meta{}, false, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload_json, snapshot_id, etag, extra_json, updated_at
		 FROM proxy_snapshots
		 WHERE snapshot_key = ?`,
		key,
	)
	var payload, extra string
	var meta snapshot.Meta
	var updatedAt int64
	if err := row.Scan(&payload, &meta.SnapshotID, &meta.ETag, &extra, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stated.ProxyState{}, snapshot.Meta{}, false, nil
		}
		return stated.ProxyState{}, snapshot.Meta{}, false, fmt.Errorf("get snapshot: %w", err)
	}

	state, err := s.decoder.Decode(hydrate.Record{Key: key, Class: ref.Class}, []byte(payload))
	if err != nil {
		return stated.ProxyState{}, snapshot.Meta{}, false, err
	}
	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &meta.Extra); err != nil {
			return stated.ProxyState{}, snapshot.Meta{}, false, fmt.Errorf("decode snapshot extra: %w", err)
		}
	}
	if updatedAt > 0 {
		meta.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	}
	return state, meta, true, nil
}

func (s *Store) Save(ctx context.Context, ref snapshot.Ref, state stated.ProxyState, meta snapshot.Meta) (snapshot.Meta, error) {
	if s == nil || s.sqlDB == nil {
		return snapshot.Meta{}, fmt.Errorf("storage is not configured")
	}
	key, err := ref.Identifier()
	if err != nil {
		return snapshot.Meta{}, err
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return snapshot.Meta{}, fmt.Errorf("encode snapshot: %w", err)
	}
	extra := []byte("{}")
	if len(meta.Extra) > 0 {
		if extra, err = json.Marshal(meta.Extra); err != nil {
			return snapshot.Meta{}, fmt.Errorf("encode snapshot extra: %w", err)
		}
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now().UTC()
	}
	meta.UpdatedAt = meta.UpdatedAt.Truncate(time.Millisecond)

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO proxy_snapshots (
		    snapshot_key, class, object_id, payload_json, snapshot_id, etag, extra_json, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(snapshot_key) DO UPDATE SET
		    payload_json = excluded.payload_json,
		    snapshot_id = excluded.snapshot_id,
		    etag = excluded.etag,
		    extra_json = excluded.extra_json,
		    updated_at = excluded.updated_at`,
		key, ref.Class, ref.ObjectID, string(payload), meta.SnapshotID, meta.ETag, string(extra), meta.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return snapshot.Meta{}, fmt.Errorf("put snapshot: %w", err)
	}
	return meta, nil
}

// Delete removes the snapshot under ref. Missing snapshots are ignored.
func (s *Store) Delete(ctx context.Context, ref snapshot.Ref) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM proxy_snapshots WHERE snapshot_key = ?`, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// ListObjectIDs returns the stored object ids of class, sorted.
func (s *Store) ListObjectIDs(ctx context.Context, class string) ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT object_id FROM proxy_snapshots WHERE class = ? ORDER BY object_id`, class)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
