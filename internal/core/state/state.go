// Package state implements identity and persistence for plain state
// records. A record is any struct whose fields carry a `state` tag:
// hash-tagged fields define the record's identity, persist-tagged fields
// define its durable projection. Field names in the wire form come from
// the `json` tag.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mediabot/internal/core/domain"
	"reflect"
	"strings"
)

const (
	flagHash    = "hash"
	flagPersist = "persist"
)

// Hash returns the canonical identity of record: the SHA-256 hex digest of
// a JSON object holding exactly the hash-tagged fields. Object keys are
// serialized in sorted order, so the digest depends on field values and
// names only, never on declaration order. Hash is total and never panics;
// values JSON cannot represent fall back to their fmt rendering, which
// also sorts map keys.
func Hash(record any) string {
	fields := fieldsWith(reflect.ValueOf(record), flagHash)
	payload := make(map[string]any, len(fields))
	for name, field := range fields {
		payload[name] = field.Interface()
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", payload))
	}

	sum := sha256.Sum256(encoded)

	return hex.EncodeToString(sum[:])
}

// Persist serializes the persist-tagged fields of record to JSON.
func Persist(record any) ([]byte, error) {
	fields := fieldsWith(reflect.ValueOf(record), flagPersist)
	payload := make(map[string]any, len(fields))
	for name, field := range fields {
		payload[name] = field.Interface()
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding persistable fields: %w", err)
	}

	return encoded, nil
}

// Restore is the inverse of Persist. It overwrites only the persist-tagged
// fields present in blob and leaves every other field of record untouched.
// record must be a non-nil pointer to a struct. A blob that is not a JSON
// object, or whose values do not fit the target fields, fails with
// domain.ErrMalformedRecord.
func Restore(record any, blob []byte) error {
	target := reflect.ValueOf(record)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("restore target must be a non-nil pointer, got %T", record)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}

	for name, field := range fieldsWith(target, flagPersist) {
		encoded, ok := raw[name]
		if !ok {
			continue
		}

		if err := json.Unmarshal(encoded, field.Addr().Interface()); err != nil {
			return fmt.Errorf("%w: field %q: %v", domain.ErrMalformedRecord, name, err)
		}
	}

	return nil
}

// fieldsWith collects the exported fields whose state tag carries flag,
// keyed by wire name. Anonymous embedded structs without a tag of their
// own are flattened into the parent.
func fieldsWith(v reflect.Value, flag string) map[string]reflect.Value {
	out := make(map[string]reflect.Value)
	collect(v, flag, out)

	return out
}

func collect(v reflect.Value, flag string, out map[string]reflect.Value) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}

		tag := field.Tag.Get("state")
		if tag == "" && field.Anonymous {
			collect(v.Field(i), flag, out)
			continue
		}

		if !hasFlag(tag, flag) {
			continue
		}

		out[wireName(field)] = v.Field(i)
	}
}

func hasFlag(tag, flag string) bool {
	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == flag {
			return true
		}
	}

	return false
}

func wireName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}

	return name
}
