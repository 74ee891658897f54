// Package registry holds the decoded secret of every enrolled service.
//
// A Registry is filled once at startup and only read afterwards, from the same
// goroutine that drives the scheduler, so it carries no locking.
package registry

import (
	"iter"
	"maps"
	"slices"

	"github.com/shandysiswandi/otpdeck/internal/authenticator/entity"
)

// Registry maps service ids to decoded secrets. The zero value is not usable;
// call New.
type Registry struct {
	entries map[entity.ServiceID]entity.Secret
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[entity.ServiceID]entity.Secret)}
}

// Upsert inserts or replaces the secret for id and reports whether an earlier
// entry was replaced. The last write for an id wins.
func (r *Registry) Upsert(id entity.ServiceID, secret entity.Secret) bool {
	_, replaced := r.entries[id]
	r.entries[id] = secret
	return replaced
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Get returns the secret for id.
func (r *Registry) Get(id entity.ServiceID) (entity.Secret, bool) {
	s, ok := r.entries[id]
	return s, ok
}

// All returns a lazy iteration over every entry, ordered by id. Each call
// starts a fresh pass over the entries present at that moment, so a pass is
// stable even if it is abandoned and restarted.
func (r *Registry) All() iter.Seq2[entity.ServiceID, entity.Secret] {
	return func(yield func(entity.ServiceID, entity.Secret) bool) {
		ids := slices.Sorted(maps.Keys(r.entries))
		for _, id := range ids {
			if !yield(id, r.entries[id]) {
				return
			}
		}
	}
}
