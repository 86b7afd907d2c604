package viewer

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/auth"
	"github.com/mazocruz/geoviewer/internal/registry"
	"github.com/mazocruz/geoviewer/internal/templates"
)

// Handler serves the viewer's SSE routes.
type Handler struct {
	auth     *auth.Service
	reg      *registry.Registry
	renderer *templates.Renderer
}

func NewHandler(authSvc *auth.Service, reg *registry.Registry, renderer *templates.Renderer) *Handler {
	return &Handler{auth: authSvc, reg: reg, renderer: renderer}
}

// RegisterRoutes registers every SSE route under /api/v1/viewer.
func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/viewer/layers", h.ListLayers, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/layers/{name}/toggle", h.ToggleLayer, huma.OperationTags("viewer"))
	huma.Delete(api, "/api/v1/viewer/layers/{name}", h.DeleteLayer, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/login", h.Login, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/logout", h.Logout, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/users", h.ListUsers, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/events", h.Events, huma.OperationTags("viewer"))
}
