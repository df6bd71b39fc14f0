// Package registry provides the name-to-entry tables every pluggable kind
// of the bot (commands, transports, stores, integrations) is registered
// in. Registration happens explicitly during startup wiring; tables are
// read-only afterwards, so lookups need no locking.
package registry

import (
	"fmt"
	"mediabot/internal/core/domain"
	"sort"

	"github.com/rs/zerolog/log"
)

type Registry[T any] struct {
	kind    string
	entries map[string]T
}

func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]T),
	}
}

// Register adds entry under name. Registering a name twice is a
// configuration error and fails with domain.ErrDuplicateName.
func (r *Registry[T]) Register(name string, entry T) error {
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%s %q: %w", r.kind, name, domain.ErrDuplicateName)
	}

	log.Debug().Str("kind", r.kind).Str("name", name).Msg("adding entry to registry")
	r.entries[name] = entry

	return nil
}

// MustRegister is Register for startup wiring, where a duplicate name is a
// programming error worth dying for.
func (r *Registry[T]) MustRegister(name string, entry T) {
	if err := r.Register(name, entry); err != nil {
		log.Panic().Err(err).Msg("registry wiring failed")
	}
}

func (r *Registry[T]) Get(name string) (T, error) {
	entry, ok := r.entries[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", r.kind, name, domain.ErrNotRegistered)
	}

	return entry, nil
}

func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *Registry[T]) Len() int {
	return len(r.entries)
}
