// Package registry tracks every layer shown in the viewer by its
// normalized name: the handle on the map, its metadata and whether it may
// be deleted. System layers loaded at startup are immutable; only
// user-imported layers carry a persisted record and a delete affordance.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mazocruz/geoviewer/internal/mapview"
	"github.com/mazocruz/geoviewer/internal/store"
)

var (
	// ErrLayerNotFound is returned when a name is not registered.
	ErrLayerNotFound = errors.New("capa no encontrada")
	// ErrSystemLayer is returned when deleting a non-imported layer.
	ErrSystemLayer = errors.New("solo se pueden eliminar capas importadas")
)

// Metadata describes a registered layer.
type Metadata struct {
	OriginalName string `json:"originalName"`
	Imported     bool   `json:"isImported"`
	LayerID      string `json:"layerId,omitempty"` // persisted record id
	Color        string `json:"color,omitempty"`
}

// Entry pairs a map layer handle with its metadata.
type Entry struct {
	Handle *mapview.Layer
	Meta   Metadata
}

// NamedEntry is an Entry with its registry key, for listings.
type NamedEntry struct {
	Name string
	Entry
}

// ChangeKind tags a registry change event.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeToggled ChangeKind = "toggled"
	ChangeDeleted ChangeKind = "deleted"
)

// Change notifies subscribers that the layer list needs re-rendering.
type Change struct {
	Kind ChangeKind
	Name string
}

// Registry is the name-keyed layer table.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string // registration order, for stable listings

	m     *mapview.Map
	store *store.Store
	bus   *Bus
	log   zerolog.Logger

	// Cleanup, when set, runs after an imported layer is deleted so other
	// components (analytics tables, source files) can drop their copies.
	Cleanup func(name string, meta Metadata)
}

// New creates an empty registry bound to the map and the store.
func New(m *mapview.Map, st *store.Store, log zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		m:       m,
		store:   st,
		bus:     NewBus(),
		log:     log.With().Str("component", "registry").Logger(),
	}
}

// Changes exposes the change bus the SSE layer re-renders from.
func (r *Registry) Changes() *Bus { return r.bus }

// Add registers or overwrites an entry by name and notifies subscribers.
func (r *Registry) Add(name string, handle *mapview.Layer, meta Metadata) {
	handle.SetName(name)

	r.mu.Lock()
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = Entry{Handle: handle, Meta: meta}
	r.mu.Unlock()

	r.bus.Publish(Change{Kind: ChangeAdded, Name: name})
	r.log.Debug().Str("layer", name).Bool("imported", meta.Imported).Msg("layer registered")
}

// Toggle sets the underlying layer's visibility. Unknown names are a
// no-op returning false.
func (r *Registry) Toggle(name string, visible bool) bool {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	entry.Handle.SetVisible(visible)
	r.bus.Publish(Change{Kind: ChangeToggled, Name: name})
	return true
}

// Delete removes an imported layer from the map, its persisted record and
// the registry. System layers fail with ErrSystemLayer; repeating the
// delete reports ErrLayerNotFound, so the operation is idempotent.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}
	if !entry.Meta.Imported {
		r.mu.Unlock()
		return ErrSystemLayer
	}

	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.m.RemoveLayer(entry.Handle)
	if entry.Meta.LayerID != "" {
		r.store.DeleteLayer(entry.Meta.LayerID)
	}
	if r.Cleanup != nil {
		r.Cleanup(name, entry.Meta)
	}

	r.bus.Publish(Change{Kind: ChangeDeleted, Name: name})
	r.log.Info().Str("layer", name).Msg("layer deleted")
	return nil
}

// Get looks up an entry by name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// List returns every entry in registration order.
func (r *Registry) List() []NamedEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]NamedEntry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, NamedEntry{Name: name, Entry: r.entries[name]})
	}
	return out
}

// Names returns the registered names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered layers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// DisplayName resolves what the layer list shows for a name: the stored
// original display name when present, then the known dataset alias table,
// then the generic underscore-to-space transformation.
func (r *Registry) DisplayName(name string) string {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if ok && entry.Meta.OriginalName != "" {
		return entry.Meta.OriginalName
	}
	if alias, ok := datasetNames[name]; ok {
		return alias
	}
	return formatGeneric(name)
}
