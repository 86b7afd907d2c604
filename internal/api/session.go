package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/auth"
)

// RegisterSession registers login, logout and session inspection.
func (h *Handler) RegisterSession(api huma.API) {
	huma.Post(api, "/api/v1/session", h.Login, huma.OperationTags("session"))
	huma.Delete(api, "/api/v1/session", h.Logout, huma.OperationTags("session"))
	huma.Get(api, "/api/v1/session", h.GetSession, huma.OperationTags("session"))
}

type LoginInput struct {
	Body struct {
		Username string `json:"username" required:"true" doc:"Username"`
		Password string `json:"password" required:"true" doc:"Password"`
	}
}

// SessionBody describes the active session.
type SessionBody struct {
	Username    string   `json:"username" doc:"Logged-in username"`
	Role        string   `json:"role" doc:"Role id" example:"editor"`
	RoleName    string   `json:"roleName" doc:"Role display name"`
	Name        string   `json:"name" doc:"Full name"`
	Email       string   `json:"email" doc:"Email address"`
	Permissions []string `json:"permissions" doc:"Permission tokens"`
}

func (h *Handler) sessionBody(sess auth.Session) SessionBody {
	return SessionBody{
		Username:    sess.Username,
		Role:        sess.Role,
		RoleName:    h.svc.Auth.RoleDisplayName(sess.Role),
		Name:        sess.Name,
		Email:       sess.Email,
		Permissions: sess.Permissions,
	}
}

func (h *Handler) Login(ctx context.Context, input *LoginInput) (*struct{ Body SessionBody }, error) {
	if !h.svc.Auth.Login(input.Body.Username, input.Body.Password) {
		return nil, huma.Error401Unauthorized("usuario o contraseña incorrectos")
	}
	sess, _ := h.svc.Auth.Session()
	return &struct{ Body SessionBody }{Body: h.sessionBody(sess)}, nil
}

func (h *Handler) Logout(ctx context.Context, input *struct{}) (*struct{ Body MessageBody }, error) {
	h.svc.Auth.Logout()
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "sesión cerrada"}}, nil
}

func (h *Handler) GetSession(ctx context.Context, input *struct{}) (*struct{ Body SessionBody }, error) {
	sess, ok := h.svc.Auth.Session()
	if !ok {
		return nil, huma.Error401Unauthorized("no hay sesión activa")
	}
	return &struct{ Body SessionBody }{Body: h.sessionBody(sess)}, nil
}
