package viewer

import (
	"bytes"
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/auth"
	"github.com/mazocruz/geoviewer/internal/registry"
)

// LayerItemData feeds the layer-item fragment.
type LayerItemData struct {
	Name         string
	DisplayName  string
	Visible      bool
	Imported     bool
	FeatureCount int
	Color        string
	CanDelete    bool
}

func (h *Handler) renderLayerList() string {
	entries := h.reg.List()
	canDelete := h.auth.HasPermission(auth.PermDelete)

	var buf bytes.Buffer
	if len(entries) == 0 {
		h.renderer.RenderToBuffer(&buf, "empty-state", map[string]string{
			"Title": "Sin capas", "Message": "No hay capas registradas",
		})
		return buf.String()
	}
	for _, e := range entries {
		h.renderer.RenderToBuffer(&buf, "layer-item", LayerItemData{
			Name:         e.Name,
			DisplayName:  h.reg.DisplayName(e.Name),
			Visible:      e.Handle.Visible(),
			Imported:     e.Meta.Imported,
			FeatureCount: e.Handle.FeatureCount(),
			Color:        e.Meta.Color,
			CanDelete:    canDelete && e.Meta.Imported,
		})
	}
	return buf.String()
}

func (h *Handler) ListLayers(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			sse.Patch(h.renderLayerList(), "#layer-list")
		},
	}, nil
}

type ToggleLayerInput struct {
	Name string `path:"name" doc:"Normalized layer name"`
	SignalsInput
}

func (h *Handler) ToggleLayer(ctx context.Context, input *ToggleLayerInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	visible := signals.Bool("visible")

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)

			if !h.reg.Toggle(input.Name, visible) {
				sse.Error(registry.ErrLayerNotFound.Error())
				return
			}

			sse.Patch(h.renderLayerList(), "#layer-list")
			sse.DispatchCustomEvent("layer-changed", map[string]any{
				"action": "toggled", "name": input.Name, "visible": visible,
			})
		},
	}, nil
}

type DeleteLayerInput struct {
	Name string `path:"name" doc:"Normalized layer name"`
}

func (h *Handler) DeleteLayer(ctx context.Context, input *DeleteLayerInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)

			if !h.auth.HasPermission(auth.PermDelete) {
				sse.Error("no tiene permisos para eliminar capas")
				return
			}

			if err := h.reg.Delete(input.Name); err != nil {
				if errors.Is(err, registry.ErrSystemLayer) || errors.Is(err, registry.ErrLayerNotFound) {
					sse.Error(err.Error())
				} else {
					sse.Error("error eliminando la capa")
				}
				return
			}

			sse.RemoveElementByID("layer-" + input.Name)
			sse.Success("capa eliminada")
			sse.DispatchCustomEvent("layer-changed", map[string]any{
				"action": "deleted", "name": input.Name,
			})
		},
	}, nil
}
