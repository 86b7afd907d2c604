package viewer

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// Login authenticates from the login form signals and redirects to the
// viewer page on success.
func (h *Handler) Login(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	username := signals.String("username")
	password := signals.String("password")

	if username == "" || password == "" {
		return nil, huma.Error400BadRequest("ingrese usuario y contraseña")
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)

			if !h.auth.Login(username, password) {
				sse.Error("usuario o contraseña incorrectos")
				return
			}

			sess, _ := h.auth.Session()
			sse.Signals(map[string]any{
				"username": sess.Username,
				"role":     h.auth.RoleDisplayName(sess.Role),
				"password": "",
			})
			sse.Redirect("/viewer")
		},
	}, nil
}

// Logout clears the session and sends the browser back to the login page.
func (h *Handler) Logout(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			h.auth.Logout()
			sse.Redirect("/login")
		},
	}, nil
}
