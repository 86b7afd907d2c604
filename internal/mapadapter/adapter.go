// Package mapadapter connects the map to the rest of the system at
// startup: it registers the pre-loaded base layers from the data
// directory, restores persisted imported layers, completes the map
// readiness handshake and dispatches viewer tool selection.
package mapadapter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mazocruz/geoviewer/internal/auth"
	"github.com/mazocruz/geoviewer/internal/importer"
	"github.com/mazocruz/geoviewer/internal/mapview"
	"github.com/mazocruz/geoviewer/internal/registry"
)

// ErrNoEditPermission is returned when a drawing tool is selected without
// the write permission.
var ErrNoEditPermission = errors.New("no tiene permisos para editar datos")

// PermissionChecker is the slice of the auth service the adapter needs.
type PermissionChecker interface {
	HasPermission(perm string) bool
}

// Adapter wires the map into the registry, the importer and the session.
type Adapter struct {
	m     *mapview.Map
	reg   *registry.Registry
	imp   *importer.Importer
	perms PermissionChecker

	layersDir string
	tilesDir  string
	log       zerolog.Logger
}

// New creates an adapter reading base layers from <dataDir>/layers and
// basemap tiles from <dataDir>/tiles.
func New(m *mapview.Map, reg *registry.Registry, imp *importer.Importer, perms PermissionChecker, dataDir string, log zerolog.Logger) *Adapter {
	return &Adapter{
		m:         m,
		reg:       reg,
		imp:       imp,
		perms:     perms,
		layersDir: filepath.Join(dataDir, "layers"),
		tilesDir:  filepath.Join(dataDir, "tiles"),
		log:       log.With().Str("component", "mapadapter").Logger(),
	}
}

// Start loads the base layers, restores persisted imports and marks the
// map ready. Waiters blocked on the map's Ready channel are released even
// when individual layers fail to load; those are logged and skipped.
func (a *Adapter) Start() {
	a.registerBaseLayers()
	a.imp.RestoreAll()
	a.m.MarkReady()
}

// registerBaseLayers scans the layers directory for the GeoJSON datasets
// exported by the GIS tool and registers each as a system (non-imported)
// layer. Display names are resolved by the registry's alias table.
func (a *Adapter) registerBaseLayers() {
	entries, err := os.ReadDir(a.layersDir)
	if err != nil {
		if !os.IsNotExist(err) {
			a.log.Warn().Err(err).Msg("reading layers directory")
		}
		return
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".geojson" && ext != ".json" {
			continue
		}

		path := filepath.Join(a.layersDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			a.log.Warn().Err(err).Str("file", entry.Name()).Msg("reading base layer")
			continue
		}

		features, err := importer.DecodeFeatures(data)
		if err != nil {
			a.log.Warn().Err(err).Str("file", entry.Name()).Msg("decoding base layer")
			continue
		}

		title := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		name := registry.NormalizeName(title)
		if name == "" {
			continue
		}

		layer := mapview.NewVectorLayer(a.displayTitle(name), features, mapview.NewStyleFunc(importer.DefaultColor))
		a.m.AddLayer(layer)
		// OriginalName stays empty so DisplayName falls through to the
		// dataset alias table.
		a.reg.Add(name, layer, registry.Metadata{})
		count++
	}

	if count > 0 {
		a.log.Info().Int("layers", count).Msg("base layers registered")
	}
}

func (a *Adapter) displayTitle(name string) string {
	return a.reg.DisplayName(name)
}

// SetTool dispatches a viewer tool selection. Measure and draw tools are
// stubs; drawing additionally requires the write permission.
func (a *Adapter) SetTool(tool string) error {
	switch tool {
	case "measure":
		a.log.Info().Msg("measure tool selected (not implemented)")
	case "draw-point", "draw-line", "draw-polygon":
		if !a.perms.HasPermission(auth.PermWrite) {
			return ErrNoEditPermission
		}
		a.log.Info().Str("tool", tool).Msg("draw tool selected (not implemented)")
	default:
		a.log.Debug().Str("tool", tool).Msg("tool needs no interactions")
	}
	return nil
}
