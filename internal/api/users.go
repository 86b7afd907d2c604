package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mazocruz/geoviewer/internal/auth"
)

// RegisterUsers registers user administration routes. Every mutation is
// gated by the manage_users permission inside the auth service.
func (h *Handler) RegisterUsers(api huma.API) {
	huma.Get(api, "/api/v1/users", h.GetUsers, huma.OperationTags("users"))
	huma.Post(api, "/api/v1/users", h.CreateUser, huma.OperationTags("users"))
	huma.Put(api, "/api/v1/users/{username}", h.UpdateUser, huma.OperationTags("users"))
	huma.Delete(api, "/api/v1/users/{username}", h.DeleteUser, huma.OperationTags("users"))
	huma.Post(api, "/api/v1/users/{username}/activate", h.ActivateUser, huma.OperationTags("users"))
	huma.Post(api, "/api/v1/users/{username}/deactivate", h.DeactivateUser, huma.OperationTags("users"))
}

type UsernameInput struct {
	Username string `path:"username" doc:"Username" example:"geologo1"`
}

// UserView is a user record without the password.
type UserView struct {
	Username    string            `json:"username" doc:"Username"`
	Role        string            `json:"role" doc:"Role id"`
	RoleName    string            `json:"roleName" doc:"Role display name"`
	Name        string            `json:"name" doc:"Full name"`
	Email       string            `json:"email" doc:"Email address"`
	Active      bool              `json:"active" doc:"Whether the user can log in"`
	System      bool              `json:"isSystem" doc:"Whether the user is seeded and undeletable"`
	CreatedAt   string            `json:"createdAt,omitempty" doc:"Creation date"`
	LastLogin   string            `json:"lastLogin,omitempty" doc:"Last login date"`
	Permissions []string          `json:"permissions" doc:"Permission tokens"`
	Attributes  map[string]string `json:"attributes,omitempty" doc:"Free-form profile attributes"`
}

type UsersOutput struct {
	Body struct {
		Users  []UserView `json:"users"`
		Total  int        `json:"total" doc:"Total users"`
		Active int        `json:"active" doc:"Users that can log in"`
	}
}

// UserInput carries the mutable user fields. Permissions are derived from
// the role, never accepted from the caller.
type UserInput struct {
	Password   string            `json:"password,omitempty" doc:"Password"`
	Role       string            `json:"role,omitempty" doc:"Role id" example:"viewer"`
	Name       string            `json:"name,omitempty" doc:"Full name"`
	Email      string            `json:"email,omitempty" doc:"Email address"`
	Attributes map[string]string `json:"attributes,omitempty" doc:"Free-form profile attributes"`
}

func (i UserInput) user() auth.User {
	return auth.User{
		Password:   i.Password,
		Role:       i.Role,
		Name:       i.Name,
		Email:      i.Email,
		Attributes: i.Attributes,
	}
}

func (h *Handler) userView(rec auth.UserRecord) UserView {
	return UserView{
		Username:    rec.Username,
		Role:        rec.Role,
		RoleName:    h.svc.Auth.RoleDisplayName(rec.Role),
		Name:        rec.Name,
		Email:       rec.Email,
		Active:      rec.IsActive(),
		System:      h.svc.Auth.IsSystemUser(rec.Username),
		CreatedAt:   rec.CreatedAt,
		LastLogin:   rec.LastLogin,
		Permissions: rec.Permissions,
		Attributes:  rec.Attributes,
	}
}

func userError(err error) error {
	switch {
	case errors.Is(err, auth.ErrPermissionDenied):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, auth.ErrUserNotFound):
		return huma.Error404NotFound(err.Error())
	default:
		return huma.Error400BadRequest(err.Error())
	}
}

func (h *Handler) GetUsers(ctx context.Context, input *struct{}) (*UsersOutput, error) {
	if !h.svc.Auth.HasPermission(auth.PermManageUsers) {
		return nil, huma.Error403Forbidden(auth.ErrPermissionDenied.Error())
	}

	records := h.svc.Auth.Users()
	out := &UsersOutput{}
	out.Body.Users = make([]UserView, 0, len(records))
	for _, rec := range records {
		out.Body.Users = append(out.Body.Users, h.userView(rec))
	}
	out.Body.Total = h.svc.Auth.UserCount()
	out.Body.Active = h.svc.Auth.ActiveUserCount()
	return out, nil
}

type CreateUserInput struct {
	Body struct {
		Username string `json:"username" required:"true" doc:"Username"`
		UserInput
	}
}

func (h *Handler) CreateUser(ctx context.Context, input *CreateUserInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Auth.AddUser(input.Body.Username, input.Body.user()); err != nil {
		return nil, userError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "usuario creado"}}, nil
}

type UpdateUserInput struct {
	UsernameInput
	Body UserInput
}

func (h *Handler) UpdateUser(ctx context.Context, input *UpdateUserInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Auth.UpdateUser(input.Username, input.Body.user()); err != nil {
		return nil, userError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "usuario actualizado"}}, nil
}

func (h *Handler) DeleteUser(ctx context.Context, input *UsernameInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Auth.DeleteUser(input.Username); err != nil {
		return nil, userError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "usuario eliminado"}}, nil
}

func (h *Handler) ActivateUser(ctx context.Context, input *UsernameInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Auth.ActivateUser(input.Username); err != nil {
		return nil, userError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "usuario activado"}}, nil
}

func (h *Handler) DeactivateUser(ctx context.Context, input *UsernameInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Auth.DeactivateUser(input.Username); err != nil {
		return nil, userError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "usuario desactivado"}}, nil
}
