// Package hydrate rebuilds proxy snapshots from stored JSON. Payloads pass
// through migrations on their raw form, are decoded, then checked.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-stated/layering"
)

// Stage names the step of Decode that failed.
type Stage string

const (
	StageParse   Stage = "parse"
	StageMigrate Stage = "migrate"
	StageDecode  Stage = "decode"
	StageCheck   Stage = "check"
)

// Record is the storage row a payload came from.
type Record struct {
	Key   string
	Class string
}

// Error reports the stage and record of a failed decode.
type Error struct {
	Stage Stage
	Key   string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hydrate: %s %q: %v", e.Stage, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Migration rewrites a raw payload, typically lifting an older layout. A nil
// result keeps the payload it was given.
type Migration func(Record, map[string]any) (map[string]any, error)

// Check inspects or completes a decoded value.
type Check[T any] func(Record, *T) error

// DecodeFunc replaces JSON decoding of the migrated payload.
type DecodeFunc[T any] func(Record, map[string]any) (T, error)

// Option configures a Decoder.
type Option[T any] func(*Decoder[T])

// Decoder turns payloads into T.
type Decoder[T any] struct {
	migrations []Migration
	checks     []Check[T]
	strict     bool
	decode     DecodeFunc[T]
}

// Migrate appends a migration. Migrations run in the order given.
func Migrate[T any](migration Migration) Option[T] {
	return func(d *Decoder[T]) {
		if migration != nil {
			d.migrations = append(d.migrations, migration)
		}
	}
}

// Validate appends a check run after decoding.
func Validate[T any](check Check[T]) Option[T] {
	return func(d *Decoder[T]) {
		if check != nil {
			d.checks = append(d.checks, check)
		}
	}
}

// Strict rejects payload keys T does not declare.
func Strict[T any]() Option[T] {
	return func(d *Decoder[T]) { d.strict = true }
}

// Using swaps JSON decoding for fn.
func Using[T any](fn DecodeFunc[T]) Option[T] {
	return func(d *Decoder[T]) { d.decode = fn }
}

func NewDecoder[T any](opts ...Option[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode parses raw and hands the payload to the pipeline.
func (d *Decoder[T]) Decode(rec Record, raw []byte) (T, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		var zero T
		return zero, &Error{Stage: StageParse, Key: rec.Key, Err: err}
	}
	return d.run(rec, payload)
}

// DecodeMap decodes an already parsed payload. payload is copied first and is
// never modified.
func (d *Decoder[T]) DecodeMap(rec Record, payload map[string]any) (T, error) {
	return d.run(rec, layering.Clone(payload))
}

func (d *Decoder[T]) run(rec Record, payload map[string]any) (T, error) {
	var zero T
	if payload == nil {
		return zero, &Error{Stage: StageParse, Key: rec.Key, Err: fmt.Errorf("empty payload")}
	}
	for _, migrate := range d.migrations {
		next, err := migrate(rec, payload)
		if err != nil {
			return zero, &Error{Stage: StageMigrate, Key: rec.Key, Err: err}
		}
		if next != nil {
			payload = next
		}
	}

	value, err := d.decodePayload(rec, payload)
	if err != nil {
		return zero, &Error{Stage: StageDecode, Key: rec.Key, Err: err}
	}
	for _, check := range d.checks {
		if err := check(rec, &value); err != nil {
			return zero, &Error{Stage: StageCheck, Key: rec.Key, Err: err}
		}
	}
	return value, nil
}

func (d *Decoder[T]) decodePayload(rec Record, payload map[string]any) (T, error) {
	if d.decode != nil {
		return d.decode(rec, payload)
	}
	var value T
	buffer, err := json.Marshal(payload)
	if err != nil {
		return value, err
	}
	dec := json.NewDecoder(bytes.NewReader(buffer))
	if d.strict {
		dec.DisallowUnknownFields()
	}
	err = dec.Decode(&value)
	return value, err
}
