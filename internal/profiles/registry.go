// Package profiles keeps the library profiles the engine can load and
// provides the pieces needed to describe a library without Go code: a
// generic canonicalizer and YAML profile files.
package profiles

import (
	"fmt"
	"sync"

	"github.com/conneroisu/palette/internal/types"
)

// Registry holds one profile per library id for the life of the process.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]types.LibraryProfile
	order    []string
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]types.LibraryProfile)}
}

// Register adds profile, replacing any profile registered under the same id.
func (r *Registry) Register(profile types.LibraryProfile) error {
	if profile.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	if profile.Descriptor == nil {
		return fmt.Errorf("profile %s has no descriptor factory", profile.ID)
	}
	if profile.ToCanonicalComponents == nil {
		return fmt.Errorf("profile %s has no canonicalizer", profile.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[profile.ID]; !exists {
		r.order = append(r.order, profile.ID)
	}
	r.profiles[profile.ID] = profile
	return nil
}

// Unregister removes the profile registered under id, if any.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[id]; !exists {
		return
	}
	delete(r.profiles, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get retrieves a profile by id
func (r *Registry) Get(id string) (types.LibraryProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[id]
	return profile, ok
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string{}, r.order...)
}

// Profiles returns the registered profiles in registration order.
func (r *Registry) Profiles() []types.LibraryProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.LibraryProfile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.profiles[id])
	}
	return out
}
