// Package api defines the Huma REST routes of the viewer.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/auth"
	"github.com/mazocruz/geoviewer/internal/importer"
	"github.com/mazocruz/geoviewer/internal/mapadapter"
	"github.com/mazocruz/geoviewer/internal/mapview"
	"github.com/mazocruz/geoviewer/internal/registry"
)

// Services holds the dependencies the API handlers work against.
type Services struct {
	Auth     *auth.Service
	Registry *registry.Registry
	Map      *mapview.Map
	Importer *importer.Importer
	Adapter  *mapadapter.Adapter
}

// MessageBody is a simple result message.
type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

// HealthBody reports liveness.
type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// Handler holds the REST handlers for the map, session, layer and user
// operations.
type Handler struct {
	svc *Services
}

func NewHandler(svc *Services) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers every REST route.
func RegisterRoutes(api huma.API, svc *Services, conn *DBHandler) {
	h := NewHandler(svc)
	h.RegisterHealth(api)
	h.RegisterSession(api)
	h.RegisterLayers(api)
	h.RegisterImport(api)
	h.RegisterUsers(api)
	h.RegisterView(api)
	if conn != nil {
		conn.RegisterRoutes(api)
	}
}

// RegisterHealth registers the health check route.
func (h *Handler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *Handler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}
