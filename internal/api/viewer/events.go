package viewer

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/auth"
)

// Events streams change notifications to the viewer: layer registry
// changes re-render the layer panel, auth changes re-render the session
// indicator and the user table. One connection per open viewer tab.
func (h *Handler) Events(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)

			layerCh := h.reg.Changes().Subscribe()
			defer h.reg.Changes().Unsubscribe(layerCh)

			// The auth bus is callback-based; bridge it into a channel so
			// this loop stays a single select. A full buffer drops the
			// event, the next render picks the state up anyway.
			authCh := make(chan auth.Event, 16)
			unsubscribe := h.auth.Events().Subscribe(func(e auth.Event) {
				select {
				case authCh <- e:
				default:
				}
			})
			defer unsubscribe()

			for {
				select {
				case <-ctx.Done():
					return

				case change := <-layerCh:
					sse.Patch(h.renderLayerList(), "#layer-list")
					sse.DispatchCustomEvent("layer-changed", map[string]any{
						"action": string(change.Kind), "name": change.Name,
					})

				case e := <-authCh:
					switch e.Kind {
					case auth.EventLogin:
						sse.Signals(map[string]any{
							"username": e.Session.Username,
							"role":     h.auth.RoleDisplayName(e.Session.Role),
						})
						sse.Patch(h.renderLayerList(), "#layer-list")
					case auth.EventLogout:
						sse.Signals(map[string]any{"username": "", "role": ""})
					default:
						if h.auth.HasPermission(auth.PermManageUsers) {
							sse.Patch(h.renderUserTable(), "#user-table")
						}
					}
					sse.DispatchCustomEvent("session-changed", map[string]any{
						"action": string(e.Kind), "username": e.Username,
					})
				}
			}
		},
	}, nil
}
