// Package server wires every component of the viewer together and owns
// the HTTP mux: the REST API, the Datastar SSE routes, the static assets
// and the HTML pages.
package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog"

	"github.com/mazocruz/geoviewer/internal/api"
	"github.com/mazocruz/geoviewer/internal/api/viewer"
	"github.com/mazocruz/geoviewer/internal/auth"
	"github.com/mazocruz/geoviewer/internal/db"
	"github.com/mazocruz/geoviewer/internal/importer"
	"github.com/mazocruz/geoviewer/internal/mapadapter"
	"github.com/mazocruz/geoviewer/internal/mapview"
	"github.com/mazocruz/geoviewer/internal/registry"
	"github.com/mazocruz/geoviewer/internal/store"
	"github.com/mazocruz/geoviewer/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host      string
	Port      string
	DataDir   string
	WebDir    string // path to web/ for static files and templates
	UsersFile string // path to the users and roles config
}

// Server is the viewer HTTP server. Every dependency is built here and
// passed down explicitly; nothing reaches for globals.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
	renderer *templates.Renderer
	log      zerolog.Logger
}

// New builds the full component graph and registers every route.
func New(cfg Config, log zerolog.Logger) *Server {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("geoviewer API", "1.0.0")
	humaConfig.Info.Description = "Geological map viewer API: GeoJSON layers, sessions, users and layer analytics."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())
	humaAPI := humago.New(mux, humaConfig)

	st := store.New(cfg.DataDir, log)

	authCfg, err := auth.LoadConfig(cfg.UsersFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.UsersFile).Msg("users config not loaded, using defaults")
	}
	authSvc := auth.New(authCfg, st, log)

	m := mapview.New(log)
	reg := registry.New(m, st, log)

	var conn *sql.DB
	if c, err := db.Open(db.Config{DataDir: cfg.DataDir, DBName: "geoviewer"}); err != nil {
		log.Warn().Err(err).Msg("analytics database unavailable")
	} else {
		conn = c
	}

	imp := importer.New(m, reg, st, conn, cfg.DataDir, log)
	reg.Cleanup = imp.CleanupDeleted

	adapter := mapadapter.New(m, reg, imp, authSvc, cfg.DataDir, log)

	var renderer *templates.Renderer
	if cfg.WebDir != "" {
		fragmentsDir := filepath.Join(cfg.WebDir, "templates", "fragments")
		if r, err := templates.New(fragmentsDir); err != nil {
			log.Warn().Err(err).Str("dir", fragmentsDir).Msg("fragment templates not loaded, SSE routes disabled")
		} else {
			renderer = r
		}
	}

	s := &Server{
		config: cfg,
		mux:    mux,
		db:     conn,
		services: &api.Services{
			Auth:     authSvc,
			Registry: reg,
			Map:      m,
			Importer: imp,
			Adapter:  adapter,
		},
		humaAPI:  humaAPI,
		renderer: renderer,
		log:      log.With().Str("component", "server").Logger(),
	}

	s.routes()

	// Base layers and persisted imports load before the restored session
	// event fires, so subscribers see a complete layer list.
	adapter.Start()
	authSvc.RestoreSession()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Ready unblocks once the map has finished its startup load.
func (s *Server) Ready() <-chan struct{} {
	return s.services.Map.Ready()
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes() {
	api.RegisterRoutes(s.humaAPI, s.services, api.NewDBHandler(s.db))

	info := api.NewInfoHandler(s.config.DataDir, s.db != nil)
	info.RegisterRoutes(s.humaAPI)

	if s.renderer != nil {
		vh := viewer.NewHandler(s.services.Auth, s.services.Registry, s.renderer)
		vh.RegisterRoutes(s.humaAPI)
	}

	// Static files and basemap tiles
	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	tilesDir := filepath.Join(s.config.DataDir, "tiles")
	s.mux.Handle("/tiles/", http.StripPrefix("/tiles/", s.handleTiles(tilesDir)))

	// Page routes
	s.mux.HandleFunc("/viewer", s.handlePage("viewer.html"))
	s.mux.HandleFunc("/login", s.handlePage("login.html"))
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, ok := s.services.Auth.Session(); ok {
		http.Redirect(w, r, "/viewer", http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "geoviewer",
		"status":  "running",
	})
}

func (s *Server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(s.config.WebDir, "templates", name))
	}
}

// handleTiles serves the pmtiles basemaps with the CORS and range headers
// the pmtiles protocol needs.
func (s *Server) handleTiles(tilesDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		http.FileServer(http.Dir(tilesDir)).ServeHTTP(w, r)
	})
}
