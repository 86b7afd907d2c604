package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/auth"
	"github.com/mazocruz/geoviewer/internal/importer"
)

// RegisterImport registers the GeoJSON import route.
func (h *Handler) RegisterImport(api huma.API) {
	huma.Post(api, "/api/v1/import", h.ImportLayer, huma.OperationTags("layers"))
}

type ImportInput struct {
	Body struct {
		Name    string          `json:"name" required:"true" doc:"Display name for the new layer"`
		Color   string          `json:"color,omitempty" doc:"Layer color as #rrggbb" example:"#e6194b"`
		GeoJSON json.RawMessage `json:"geojson" required:"true" doc:"GeoJSON FeatureCollection, Feature or Geometry"`
	}
}

type ImportOutput struct {
	Body importer.Result
}

func (h *Handler) ImportLayer(ctx context.Context, input *ImportInput) (*ImportOutput, error) {
	if _, ok := h.svc.Auth.Session(); !ok {
		return nil, huma.Error401Unauthorized("no hay sesión activa")
	}
	if !h.svc.Auth.HasPermission(auth.PermImportData) {
		return nil, huma.Error403Forbidden("no tiene permisos para importar datos")
	}

	result, err := h.svc.Importer.Import(input.Body.GeoJSON, input.Body.Name, input.Body.Color)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrEmptyName),
			errors.Is(err, importer.ErrInvalidGeoJSON),
			errors.Is(err, importer.ErrNoFeatures):
			return nil, huma.Error400BadRequest(err.Error())
		default:
			return nil, huma.Error500InternalServerError(err.Error())
		}
	}
	return &ImportOutput{Body: *result}, nil
}
