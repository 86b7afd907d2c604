// Package importer turns uploaded GeoJSON documents into styled, persisted
// map layers, and restores persisted layers at startup through the exact
// same construction path.
package importer

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"github.com/rs/zerolog"

	"github.com/mazocruz/geoviewer/internal/db"
	"github.com/mazocruz/geoviewer/internal/mapview"
	"github.com/mazocruz/geoviewer/internal/registry"
	"github.com/mazocruz/geoviewer/internal/store"
)

// DefaultColor is used when the caller picks no color.
const DefaultColor = "#3388ff"

var (
	// ErrEmptyName is returned when the display name is blank after trimming.
	ErrEmptyName = errors.New("ingrese un nombre para la capa")
	// ErrInvalidGeoJSON is returned for unparseable or untyped documents.
	ErrInvalidGeoJSON = errors.New("el archivo no es un GeoJSON válido")
	// ErrNoFeatures is returned when a valid document decodes to nothing.
	ErrNoFeatures = errors.New("no se encontraron features en el GeoJSON")
)

// Importer builds layers from GeoJSON. The DuckDB handle is optional;
// when present, imported layers are additionally registered as queryable
// tables, best-effort.
type Importer struct {
	m    *mapview.Map
	reg  *registry.Registry
	st   *store.Store
	conn *sql.DB

	sourcesDir string
	log        zerolog.Logger
}

// Result describes a completed import.
type Result struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	LayerID      string `json:"layerId"`
	FeatureCount int    `json:"featureCount"`
}

// New creates an importer writing source copies under <dataDir>/sources.
func New(m *mapview.Map, reg *registry.Registry, st *store.Store, conn *sql.DB, dataDir string, log zerolog.Logger) *Importer {
	return &Importer{
		m:          m,
		reg:        reg,
		st:         st,
		conn:       conn,
		sourcesDir: filepath.Join(dataDir, "sources"),
		log:        log.With().Str("component", "importer").Logger(),
	}
}

// Import validates and decodes a GeoJSON document, builds a styled layer
// from it, puts it on the map, registers it and persists its record, then
// fits the view to the new data. Every failure happens before any state is
// touched, so a failed import leaves no partial layer behind.
func (imp *Importer) Import(data []byte, displayName, color string) (*Result, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrEmptyName
	}
	if color == "" {
		color = DefaultColor
	}

	features, err := DecodeFeatures(data)
	if err != nil {
		return nil, err
	}

	name := registry.NormalizeName(displayName)
	id := imp.st.GenerateID()

	layer := mapview.NewVectorLayer(displayName, features, mapview.NewStyleFunc(color))
	imp.m.AddLayer(layer)
	imp.reg.Add(name, layer, registry.Metadata{
		OriginalName: displayName,
		Imported:     true,
		LayerID:      id,
		Color:        color,
	})

	if !imp.st.SaveLayer(store.ImportedLayer{
		ID:          id,
		Name:        name,
		DisplayName: displayName,
		GeoJSON:     json.RawMessage(data),
		Color:       color,
		ImportedAt:  time.Now().UTC(),
	}) {
		// Layer stays usable in memory for this session; it just will not
		// survive a restart.
		imp.log.Warn().Str("layer", name).Msg("imported layer not persisted")
	}

	imp.registerAnalytics(name, data)
	imp.m.FitExtent(layer.Extent())

	imp.log.Info().Str("layer", name).Int("features", layer.FeatureCount()).Msg("layer imported")
	return &Result{
		Name:         name,
		DisplayName:  displayName,
		LayerID:      id,
		FeatureCount: layer.FeatureCount(),
	}, nil
}

// RestoreAll rebuilds every persisted imported layer. Records that fail to
// decode are logged and skipped; the rest are restored, so the operation
// is order-independent and safe to repeat.
func (imp *Importer) RestoreAll() int {
	records := imp.st.Layers()
	restored := 0
	for _, rec := range records {
		if err := imp.restore(rec); err != nil {
			imp.log.Error().Err(err).Str("layer", rec.Name).Msg("restoring imported layer")
			continue
		}
		restored++
	}
	if restored > 0 {
		imp.log.Info().Int("layers", restored).Msg("imported layers restored")
	}
	return restored
}

// restore mirrors Import exactly (same decode, same projection, same
// style) but sources the GeoJSON from the persisted record and neither
// re-persists nor refits the view.
func (imp *Importer) restore(rec store.ImportedLayer) error {
	if len(rec.GeoJSON) == 0 {
		return fmt.Errorf("record %s has no GeoJSON payload", rec.ID)
	}

	features, err := DecodeFeatures(rec.GeoJSON)
	if err != nil {
		return err
	}

	displayName := rec.DisplayName
	if displayName == "" {
		displayName = rec.Name
	}
	color := rec.Color
	if color == "" {
		color = DefaultColor
	}

	// Re-restoring an already-registered record replaces its handle
	// instead of stacking a duplicate on the map.
	if existing, ok := imp.reg.Get(rec.Name); ok && existing.Meta.LayerID == rec.ID {
		imp.m.RemoveLayer(existing.Handle)
	}

	layer := mapview.NewVectorLayer(displayName, features, mapview.NewStyleFunc(color))
	imp.m.AddLayer(layer)
	imp.reg.Add(rec.Name, layer, registry.Metadata{
		OriginalName: displayName,
		Imported:     true,
		LayerID:      rec.ID,
		Color:        color,
	})

	imp.registerAnalytics(rec.Name, rec.GeoJSON)
	return nil
}

// registerAnalytics keeps a queryable copy of the layer in DuckDB: the raw
// GeoJSON goes to the sources directory and ST_Read materializes it as a
// table. Failures are logged and do not affect the import.
func (imp *Importer) registerAnalytics(name string, raw []byte) {
	if imp.conn == nil {
		return
	}

	if err := os.MkdirAll(imp.sourcesDir, 0755); err != nil {
		imp.log.Warn().Err(err).Msg("creating sources directory")
		return
	}
	path := filepath.Join(imp.sourcesDir, name+".geojson")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		imp.log.Warn().Err(err).Str("layer", name).Msg("writing source copy")
		return
	}
	if err := db.RegisterLayerTable(imp.conn, name, path); err != nil {
		imp.log.Warn().Err(err).Str("layer", name).Msg("registering layer table")
	}
}

// CleanupDeleted drops a deleted layer's analytics table and source copy.
// Wire it as the registry's Cleanup hook.
func (imp *Importer) CleanupDeleted(name string, meta registry.Metadata) {
	if !meta.Imported {
		return
	}
	if imp.conn != nil {
		if err := db.DropLayerTable(imp.conn, name); err != nil {
			imp.log.Warn().Err(err).Str("layer", name).Msg("dropping layer table")
		}
	}
	path := filepath.Join(imp.sourcesDir, name+".geojson")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		imp.log.Warn().Err(err).Str("layer", name).Msg("removing source copy")
	}
}

// DecodeFeatures parses a GeoJSON document (FeatureCollection, single
// Feature or bare Geometry), normalizes it to a feature collection and
// projects every geometry from geographic EPSG:4326 into the EPSG:3857
// display projection the whole viewer works in.
func DecodeFeatures(data []byte) ([]*geojson.Feature, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
	}

	var fc *geojson.FeatureCollection
	switch probe.Type {
	case "FeatureCollection":
		parsed, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
		}
		fc = parsed

	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
		}
		fc = geojson.NewFeatureCollection()
		fc.Append(f)

	case "Point", "MultiPoint", "LineString", "MultiLineString",
		"Polygon", "MultiPolygon", "GeometryCollection":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
		}
		fc = geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(g.Geometry()))

	default:
		return nil, ErrInvalidGeoJSON
	}

	features := make([]*geojson.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		f.Geometry = project.Geometry(f.Geometry, project.WGS84.ToMercator)
		features = append(features, f)
	}
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}
	return features, nil
}
