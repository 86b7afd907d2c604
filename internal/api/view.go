package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/mapadapter"
)

// RegisterView registers map view controls and basemap listing.
func (h *Handler) RegisterView(api huma.API) {
	huma.Get(api, "/api/v1/view", h.GetView, huma.OperationTags("view"))
	huma.Post(api, "/api/v1/view/zoom-in", h.ZoomIn, huma.OperationTags("view"))
	huma.Post(api, "/api/v1/view/zoom-out", h.ZoomOut, huma.OperationTags("view"))
	huma.Post(api, "/api/v1/view/reset", h.ResetView, huma.OperationTags("view"))
	huma.Post(api, "/api/v1/view/tool", h.SetTool, huma.OperationTags("view"))
	huma.Get(api, "/api/v1/basemaps", h.GetBasemaps, huma.OperationTags("view"))
}

// ViewBody is the current map view in EPSG:3857 coordinates.
type ViewBody struct {
	Center [2]float64 `json:"center" doc:"View center as [x, y] in EPSG:3857"`
	Zoom   float64    `json:"zoom" doc:"Zoom level"`
	Layers int        `json:"layers" doc:"Number of layers on the map"`
}

func (h *Handler) viewBody() ViewBody {
	v := h.svc.Map.View()
	return ViewBody{
		Center: [2]float64{v.Center.X(), v.Center.Y()},
		Zoom:   v.Zoom,
		Layers: len(h.svc.Map.Layers()),
	}
}

func (h *Handler) GetView(ctx context.Context, input *struct{}) (*struct{ Body ViewBody }, error) {
	return &struct{ Body ViewBody }{Body: h.viewBody()}, nil
}

func (h *Handler) ZoomIn(ctx context.Context, input *struct{}) (*struct{ Body ViewBody }, error) {
	h.svc.Map.ZoomIn()
	return &struct{ Body ViewBody }{Body: h.viewBody()}, nil
}

func (h *Handler) ZoomOut(ctx context.Context, input *struct{}) (*struct{ Body ViewBody }, error) {
	h.svc.Map.ZoomOut()
	return &struct{ Body ViewBody }{Body: h.viewBody()}, nil
}

func (h *Handler) ResetView(ctx context.Context, input *struct{}) (*struct{ Body ViewBody }, error) {
	h.svc.Map.ResetView()
	return &struct{ Body ViewBody }{Body: h.viewBody()}, nil
}

type ToolInput struct {
	Body struct {
		Tool string `json:"tool" required:"true" doc:"Tool id" example:"draw-point"`
	}
}

func (h *Handler) SetTool(ctx context.Context, input *ToolInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Adapter.SetTool(input.Body.Tool); err != nil {
		if errors.Is(err, mapadapter.ErrNoEditPermission) {
			return nil, huma.Error403Forbidden(err.Error())
		}
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "herramienta activada"}}, nil
}

type BasemapsOutput struct {
	Body struct {
		Basemaps []mapadapter.BasemapFile `json:"basemaps"`
	}
}

func (h *Handler) GetBasemaps(ctx context.Context, input *struct{}) (*BasemapsOutput, error) {
	files, err := h.svc.Adapter.Basemaps()
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}
	out := &BasemapsOutput{}
	out.Body.Basemaps = files
	return out, nil
}
