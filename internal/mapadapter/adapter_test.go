package mapadapter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mazocruz/geoviewer/internal/auth"
	"github.com/mazocruz/geoviewer/internal/importer"
	"github.com/mazocruz/geoviewer/internal/mapview"
	"github.com/mazocruz/geoviewer/internal/registry"
	"github.com/mazocruz/geoviewer/internal/store"
)

const baseLayerJSON = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {},
		 "geometry": {"type": "Point", "coordinates": [-70.9, -16.7]}}
	]
}`

type stubPerms struct{ perms map[string]bool }

func (s stubPerms) HasPermission(perm string) bool { return s.perms[perm] }

func newTestAdapter(t *testing.T, perms PermissionChecker) (*Adapter, *mapview.Map, *registry.Registry, string) {
	t.Helper()
	dir := t.TempDir()
	st := store.New(dir, zerolog.Nop())
	m := mapview.New(zerolog.Nop())
	reg := registry.New(m, st, zerolog.Nop())
	imp := importer.New(m, reg, st, nil, dir, zerolog.Nop())
	return New(m, reg, imp, perms, dir, zerolog.Nop()), m, reg, dir
}

func TestStartRegistersBaseLayers(t *testing.T) {
	a, m, reg, dir := newTestAdapter(t, stubPerms{})

	layersDir := filepath.Join(dir, "layers")
	if err := os.MkdirAll(layersDir, 0755); err != nil {
		t.Fatal(err)
	}
	files := []string{"Volcanes_2.geojson", "fallas.json", "notas.txt", "roto.geojson"}
	contents := []string{baseLayerJSON, baseLayerJSON, "ignorado", "{broken"}
	for i, name := range files {
		if err := os.WriteFile(filepath.Join(layersDir, name), []byte(contents[i]), 0644); err != nil {
			t.Fatal(err)
		}
	}

	a.Start()

	select {
	case <-m.Ready():
	default:
		t.Fatal("map not ready after Start")
	}

	// the two valid files registered, the .txt and the broken one skipped
	if reg.Len() != 2 {
		t.Fatalf("len=%d, want 2", reg.Len())
	}
	if _, ok := reg.Get("Volcanes_2"); !ok {
		t.Fatal("Volcanes_2 not registered")
	}
	entry, ok := reg.Get("fallas")
	if !ok {
		t.Fatal("fallas not registered")
	}
	if entry.Meta.Imported {
		t.Fatal("base layer marked imported")
	}

	// base layers resolve through the dataset alias table
	if got := reg.DisplayName("Volcanes_2"); got != "Volcanes" {
		t.Fatalf("display=%q, want Volcanes", got)
	}
}

func TestStartWithoutLayersDir(t *testing.T) {
	a, m, reg, _ := newTestAdapter(t, stubPerms{})

	a.Start()

	select {
	case <-m.Ready():
	default:
		t.Fatal("map not ready after Start")
	}
	if reg.Len() != 0 {
		t.Fatalf("len=%d, want 0", reg.Len())
	}
}

func TestSetToolPermissions(t *testing.T) {
	canWrite := stubPerms{perms: map[string]bool{auth.PermWrite: true}}
	a, _, _, _ := newTestAdapter(t, canWrite)

	for _, tool := range []string{"measure", "draw-point", "draw-line", "draw-polygon", "pan"} {
		if err := a.SetTool(tool); err != nil {
			t.Fatalf("SetTool(%s): %v", tool, err)
		}
	}

	readOnly := stubPerms{}
	a2, _, _, _ := newTestAdapter(t, readOnly)

	if err := a2.SetTool("draw-point"); !errors.Is(err, ErrNoEditPermission) {
		t.Fatalf("err=%v, want ErrNoEditPermission", err)
	}
	if err := a2.SetTool("measure"); err != nil {
		t.Fatalf("measure must not require permissions: %v", err)
	}
}

func TestBasemaps(t *testing.T) {
	a, _, _, dir := newTestAdapter(t, stubPerms{})

	// no tiles directory yet
	files, err := a.Basemaps()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("len=%d, want 0", len(files))
	}

	tilesDir := filepath.Join(dir, "tiles")
	os.MkdirAll(tilesDir, 0755)
	os.WriteFile(filepath.Join(tilesDir, "base.pmtiles"), make([]byte, 2048), 0644)
	os.WriteFile(filepath.Join(tilesDir, "leeme.txt"), []byte("x"), 0644)

	files, err = a.Basemaps()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("len=%d, want 1", len(files))
	}
	if files[0].Name != "base.pmtiles" || files[0].Size != "2.0 KB" {
		t.Fatalf("got %+v", files[0])
	}
}
