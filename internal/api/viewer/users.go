package viewer

import (
	"bytes"
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/auth"
)

// UserRowData feeds the user-row fragment of the admin panel.
type UserRowData struct {
	Username    string
	Name        string
	Email       string
	RoleName    string
	Permissions string
	Active      bool
	System      bool
	LastLogin   string
}

func (h *Handler) renderUserTable() string {
	records := h.auth.Users()

	var buf bytes.Buffer
	for _, rec := range records {
		perms := make([]string, 0, len(rec.Permissions))
		for _, p := range rec.Permissions {
			perms = append(perms, auth.PermissionDisplayName(p))
		}
		h.renderer.RenderToBuffer(&buf, "user-row", UserRowData{
			Username:    rec.Username,
			Name:        rec.Name,
			Email:       rec.Email,
			RoleName:    h.auth.RoleDisplayName(rec.Role),
			Permissions: strings.Join(perms, ", "),
			Active:      rec.IsActive(),
			System:      h.auth.IsSystemUser(rec.Username),
			LastLogin:   rec.LastLogin,
		})
	}
	return buf.String()
}

// ListUsers streams the user administration table. Without manage_users
// the panel shows an access message instead of the table.
func (h *Handler) ListUsers(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)

			if !h.auth.HasPermission(auth.PermManageUsers) {
				sse.Error(auth.ErrPermissionDenied.Error())
				return
			}

			sse.Patch(h.renderUserTable(), "#user-table")
			sse.Signals(map[string]any{
				"userTotal":  h.auth.UserCount(),
				"userActive": h.auth.ActiveUserCount(),
			})
		},
	}, nil
}
