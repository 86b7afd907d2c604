package api

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/rs/zerolog"

	"github.com/mazocruz/geoviewer/internal/auth"
	"github.com/mazocruz/geoviewer/internal/importer"
	"github.com/mazocruz/geoviewer/internal/mapadapter"
	"github.com/mazocruz/geoviewer/internal/mapview"
	"github.com/mazocruz/geoviewer/internal/registry"
	"github.com/mazocruz/geoviewer/internal/store"
)

func newTestAPI(t *testing.T) (humatest.TestAPI, *Services) {
	t.Helper()
	log := zerolog.Nop()

	st := store.New(t.TempDir(), log)
	authSvc := auth.New(auth.DefaultConfig(), st, log)
	m := mapview.New(log)
	reg := registry.New(m, st, log)
	imp := importer.New(m, reg, st, nil, t.TempDir(), log)
	reg.Cleanup = imp.CleanupDeleted
	adapter := mapadapter.New(m, reg, imp, authSvc, t.TempDir(), log)

	svc := &Services{Auth: authSvc, Registry: reg, Map: m, Importer: imp, Adapter: adapter}

	_, api := humatest.New(t)
	RegisterRoutes(api, svc, NewDBHandler(nil))
	return api, svc
}

func login(t *testing.T, api humatest.TestAPI, username, password string) {
	t.Helper()
	resp := api.Post("/api/v1/session", map[string]any{
		"username": username, "password": password,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("login %s: status=%d body=%s", username, resp.Code, resp.Body.String())
	}
}

func TestHealthRoute(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
}

func TestSessionRoutes(t *testing.T) {
	api, _ := newTestAPI(t)

	if resp := api.Get("/api/v1/session"); resp.Code != http.StatusUnauthorized {
		t.Fatalf("no-session status=%d, want 401", resp.Code)
	}

	resp := api.Post("/api/v1/session", map[string]any{
		"username": "admin", "password": "wrong",
	})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("bad-password status=%d, want 401", resp.Code)
	}

	login(t, api, "admin", "admin123")
	if resp := api.Get("/api/v1/session"); resp.Code != http.StatusOK {
		t.Fatalf("session status=%d", resp.Code)
	}

	if resp := api.Delete("/api/v1/session"); resp.Code != http.StatusOK {
		t.Fatalf("logout status=%d", resp.Code)
	}
	if resp := api.Get("/api/v1/session"); resp.Code != http.StatusUnauthorized {
		t.Fatalf("post-logout status=%d, want 401", resp.Code)
	}
}

func TestImportRequiresPermission(t *testing.T) {
	api, _ := newTestAPI(t)

	body := map[string]any{"name": "Capa", "geojson": map[string]any{
		"type": "Point", "coordinates": []float64{-70.9, -16.7},
	}}

	if resp := api.Post("/api/v1/import", body); resp.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status=%d, want 401", resp.Code)
	}

	login(t, api, "viewer", "viewer123")
	if resp := api.Post("/api/v1/import", body); resp.Code != http.StatusForbidden {
		t.Fatalf("viewer status=%d, want 403", resp.Code)
	}

	login(t, api, "admin", "admin123")
	if resp := api.Post("/api/v1/import", body); resp.Code != http.StatusOK {
		t.Fatalf("admin status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestLayerLifecycle(t *testing.T) {
	api, svc := newTestAPI(t)
	login(t, api, "admin", "admin123")

	resp := api.Post("/api/v1/import", map[string]any{
		"name": "Zona Urbana", "color": "#e6194b",
		"geojson": map[string]any{
			"type": "Point", "coordinates": []float64{-70.9, -16.7},
		},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%s", resp.Code, resp.Body.String())
	}

	if resp := api.Get("/api/v1/layers"); resp.Code != http.StatusOK {
		t.Fatalf("list status=%d", resp.Code)
	}

	resp = api.Post("/api/v1/layers/Zona_Urbana/toggle", map[string]any{"visible": false})
	if resp.Code != http.StatusOK {
		t.Fatalf("toggle status=%d body=%s", resp.Code, resp.Body.String())
	}
	entry, _ := svc.Registry.Get("Zona_Urbana")
	if entry.Handle.Visible() {
		t.Fatal("layer still visible after toggle")
	}

	resp = api.Post("/api/v1/layers/fantasma/toggle", map[string]any{"visible": true})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown toggle status=%d, want 404", resp.Code)
	}

	if resp := api.Delete("/api/v1/layers/Zona_Urbana"); resp.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", resp.Code, resp.Body.String())
	}
	if resp := api.Delete("/api/v1/layers/Zona_Urbana"); resp.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status=%d, want 404", resp.Code)
	}
}

func TestDeleteLayerPermissions(t *testing.T) {
	api, svc := newTestAPI(t)
	login(t, api, "admin", "admin123")

	api.Post("/api/v1/import", map[string]any{
		"name": "Importada",
		"geojson": map[string]any{
			"type": "Point", "coordinates": []float64{-70.9, -16.7},
		},
	})

	// editors lack the delete permission
	login(t, api, "editor", "editor123")
	if resp := api.Delete("/api/v1/layers/Importada"); resp.Code != http.StatusForbidden {
		t.Fatalf("editor delete status=%d, want 403", resp.Code)
	}
	if _, ok := svc.Registry.Get("Importada"); !ok {
		t.Fatal("layer vanished despite 403")
	}
}

func TestUsersRequireManagePermission(t *testing.T) {
	api, _ := newTestAPI(t)

	login(t, api, "editor", "editor123")
	if resp := api.Get("/api/v1/users"); resp.Code != http.StatusForbidden {
		t.Fatalf("editor list status=%d, want 403", resp.Code)
	}

	resp := api.Post("/api/v1/users", map[string]any{
		"username": "nuevo", "password": "pw123",
		"name": "Nuevo", "email": "n@x.com", "role": "viewer",
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("editor create status=%d, want 403", resp.Code)
	}
}

func TestUserAdministration(t *testing.T) {
	api, _ := newTestAPI(t)
	login(t, api, "admin", "admin123")

	resp := api.Post("/api/v1/users", map[string]any{
		"username": "nuevo", "password": "pw123",
		"name": "Nuevo", "email": "n@x.com", "role": "editor",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", resp.Code, resp.Body.String())
	}

	if resp := api.Get("/api/v1/users"); resp.Code != http.StatusOK {
		t.Fatalf("list status=%d", resp.Code)
	}

	resp = api.Put("/api/v1/users/nuevo", map[string]any{"role": "viewer"})
	if resp.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", resp.Code, resp.Body.String())
	}

	if resp := api.Post("/api/v1/users/nuevo/deactivate"); resp.Code != http.StatusOK {
		t.Fatalf("deactivate status=%d", resp.Code)
	}
	if resp := api.Post("/api/v1/users/nuevo/activate"); resp.Code != http.StatusOK {
		t.Fatalf("activate status=%d", resp.Code)
	}

	// system users reject mutation
	if resp := api.Put("/api/v1/users/admin", map[string]any{"name": "X"}); resp.Code != http.StatusBadRequest {
		t.Fatalf("system update status=%d, want 400", resp.Code)
	}
	if resp := api.Delete("/api/v1/users/admin"); resp.Code != http.StatusBadRequest {
		t.Fatalf("system delete status=%d, want 400", resp.Code)
	}

	if resp := api.Delete("/api/v1/users/nuevo"); resp.Code != http.StatusOK {
		t.Fatalf("delete status=%d", resp.Code)
	}
	if resp := api.Delete("/api/v1/users/fantasma"); resp.Code != http.StatusNotFound {
		t.Fatalf("unknown delete status=%d, want 404", resp.Code)
	}
}

func TestViewRoutes(t *testing.T) {
	api, svc := newTestAPI(t)

	resp := api.Get("/api/v1/view")
	if resp.Code != http.StatusOK {
		t.Fatalf("view status=%d", resp.Code)
	}

	before := svc.Map.View().Zoom
	if resp := api.Post("/api/v1/view/zoom-in"); resp.Code != http.StatusOK {
		t.Fatalf("zoom-in status=%d", resp.Code)
	}
	if got := svc.Map.View().Zoom; got != before+1 {
		t.Fatalf("zoom=%v, want %v", got, before+1)
	}

	if resp := api.Post("/api/v1/view/reset"); resp.Code != http.StatusOK {
		t.Fatalf("reset status=%d", resp.Code)
	}
	if got := svc.Map.View().Zoom; got != before {
		t.Fatalf("zoom after reset=%v, want %v", got, before)
	}

	// drawing needs a session with the write permission
	resp = api.Post("/api/v1/view/tool", map[string]any{"tool": "draw-point"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("anonymous tool status=%d, want 403", resp.Code)
	}
	login(t, api, "editor", "editor123")
	resp = api.Post("/api/v1/view/tool", map[string]any{"tool": "draw-point"})
	if resp.Code != http.StatusOK {
		t.Fatalf("editor tool status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestTablesUnavailableWithoutDB(t *testing.T) {
	api, _ := newTestAPI(t)
	if resp := api.Get("/api/v1/tables"); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", resp.Code)
	}
}
