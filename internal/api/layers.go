package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/auth"
	"github.com/mazocruz/geoviewer/internal/registry"
)

// RegisterLayers registers the layer listing, toggle and delete routes.
func (h *Handler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{name}/toggle", h.ToggleLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/v1/layers/{name}", h.DeleteLayer, huma.OperationTags("layers"))
}

type LayerNameInput struct {
	Name string `path:"name" doc:"Normalized layer name" example:"Zona_Urbana"`
}

// LayerInfo describes one registered layer for the layer panel.
type LayerInfo struct {
	Name         string `json:"name" doc:"Normalized layer name"`
	DisplayName  string `json:"displayName" doc:"Human-readable name"`
	Visible      bool   `json:"visible" doc:"Whether the layer is drawn"`
	Imported     bool   `json:"isImported" doc:"Whether the layer was imported by a user"`
	FeatureCount int    `json:"featureCount" doc:"Number of features"`
	Color        string `json:"color,omitempty" doc:"Layer color for imported layers"`
}

type LayersOutput struct {
	Body struct {
		Layers []LayerInfo `json:"layers"`
	}
}

func (h *Handler) layerInfos() []LayerInfo {
	entries := h.svc.Registry.List()
	infos := make([]LayerInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, LayerInfo{
			Name:         e.Name,
			DisplayName:  h.svc.Registry.DisplayName(e.Name),
			Visible:      e.Handle.Visible(),
			Imported:     e.Meta.Imported,
			FeatureCount: e.Handle.FeatureCount(),
			Color:        e.Meta.Color,
		})
	}
	return infos
}

func (h *Handler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	out := &LayersOutput{}
	out.Body.Layers = h.layerInfos()
	return out, nil
}

type ToggleLayerInput struct {
	LayerNameInput
	Body struct {
		Visible bool `json:"visible" doc:"Target visibility"`
	}
}

type LayerStateBody struct {
	Name    string `json:"name" doc:"Normalized layer name"`
	Visible bool   `json:"visible" doc:"Resulting visibility"`
}

func (h *Handler) ToggleLayer(ctx context.Context, input *ToggleLayerInput) (*struct{ Body LayerStateBody }, error) {
	if !h.svc.Registry.Toggle(input.Name, input.Body.Visible) {
		return nil, huma.Error404NotFound(registry.ErrLayerNotFound.Error())
	}
	return &struct{ Body LayerStateBody }{Body: LayerStateBody{
		Name: input.Name, Visible: input.Body.Visible,
	}}, nil
}

func (h *Handler) DeleteLayer(ctx context.Context, input *LayerNameInput) (*struct{ Body MessageBody }, error) {
	if _, ok := h.svc.Auth.Session(); !ok {
		return nil, huma.Error401Unauthorized("no hay sesión activa")
	}
	if !h.svc.Auth.HasPermission(auth.PermDelete) {
		return nil, huma.Error403Forbidden("no tiene permisos para eliminar capas")
	}

	if err := h.svc.Registry.Delete(input.Name); err != nil {
		switch {
		case errors.Is(err, registry.ErrLayerNotFound):
			return nil, huma.Error404NotFound(err.Error())
		case errors.Is(err, registry.ErrSystemLayer):
			return nil, huma.Error400BadRequest(err.Error())
		default:
			return nil, huma.Error500InternalServerError(err.Error())
		}
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "capa eliminada"}}, nil
}
