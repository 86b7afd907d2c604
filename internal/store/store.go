// Package store persists viewer state as JSON blobs under the data
// directory, one file per string key. It plays the role browser local
// storage plays for the web viewer: a handful of well-known keys holding
// small JSON documents, surviving restarts of the process.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Well-known storage keys.
const (
	KeySession        = "current_session"
	KeyImportedLayers = "imported_layers"
	KeyCustomUsers    = "custom_users"
)

// ImportedLayer is the durable record of a user-uploaded dataset. Records
// are keyed by a generated id; a given id is either absent or present
// exactly once (saves upsert by id).
type ImportedLayer struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DisplayName string          `json:"displayName"`
	GeoJSON     json.RawMessage `json:"geojson"`
	Color       string          `json:"color"`
	ImportedAt  time.Time       `json:"importedAt"`
}

// Store reads and writes state blobs. All operations are synchronous and
// guarded by a single mutex; concurrent processes sharing a data directory
// race last-write-wins, which is accepted.
type Store struct {
	stateDir string
	log      zerolog.Logger
	mu       sync.Mutex
}

// New creates a store rooted at <dataDir>/state.
func New(dataDir string, log zerolog.Logger) *Store {
	return &Store{
		stateDir: filepath.Join(dataDir, "state"),
		log:      log.With().Str("component", "store").Logger(),
	}
}

// Get decodes the blob stored under key into v. The second return is false
// when the key is absent. A corrupt blob is reported as an error.
func (s *Store) Get(key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.keyFile(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// Set serializes v and writes it under key.
func (s *Store) Set(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(key, v)
}

// Delete removes the blob stored under key. Removing an absent key is a
// no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.keyFile(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveLayer upserts a record into the imported-layer list by id. It
// returns false only on storage errors, which are logged rather than
// propagated.
func (s *Store) SaveLayer(rec ImportedLayer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	layers := s.readLayers()
	replaced := false
	for i := range layers {
		if layers[i].ID == rec.ID {
			layers[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		layers = append(layers, rec)
	}

	if err := s.write(KeyImportedLayers, layers); err != nil {
		s.log.Error().Err(err).Str("layer", rec.Name).Msg("saving imported layer")
		return false
	}
	s.log.Debug().Str("layer", rec.Name).Str("id", rec.ID).Msg("imported layer saved")
	return true
}

// Layers returns every persisted imported-layer record. Missing or
// unreadable storage degrades to an empty list, never an error.
func (s *Store) Layers() []ImportedLayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLayers()
}

// Layer returns the record with the given id.
func (s *Store) Layer(id string) (ImportedLayer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.readLayers() {
		if l.ID == id {
			return l, true
		}
	}
	return ImportedLayer{}, false
}

// DeleteLayer removes the record with the given id, a no-op when absent.
// It returns false only on storage errors.
func (s *Store) DeleteLayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	layers := s.readLayers()
	kept := layers[:0]
	for _, l := range layers {
		if l.ID != id {
			kept = append(kept, l)
		}
	}

	if err := s.write(KeyImportedLayers, kept); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("deleting imported layer")
		return false
	}
	return true
}

// ClearLayers empties the imported-layer list.
func (s *Store) ClearLayers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.keyFile(KeyImportedLayers)); err != nil && !os.IsNotExist(err) {
		s.log.Error().Err(err).Msg("clearing imported layers")
		return false
	}
	return true
}

// GenerateID produces a collision-resistant layer id: a time prefix keeps
// ids sortable by import order, the UUID suffix makes collisions a
// non-concern. Uniqueness is best-effort, not verified against the list.
func (s *Store) GenerateID() string {
	return fmt.Sprintf("imported_%d_%s", time.Now().UnixMilli(), uuid.NewString())
}

func (s *Store) keyFile(key string) string {
	return filepath.Join(s.stateDir, key+".json")
}

// readLayers loads the imported-layer list. Callers hold s.mu.
func (s *Store) readLayers() []ImportedLayer {
	data, err := os.ReadFile(s.keyFile(KeyImportedLayers))
	if err != nil {
		return []ImportedLayer{}
	}

	var layers []ImportedLayer
	if err := json.Unmarshal(data, &layers); err != nil {
		s.log.Warn().Err(err).Msg("imported layers blob unreadable, starting empty")
		return []ImportedLayer{}
	}
	return layers
}

// write persists v under key. Callers hold s.mu.
func (s *Store) write(key string, v any) error {
	if err := os.MkdirAll(s.stateDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.keyFile(key), data, 0644)
}
