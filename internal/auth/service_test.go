package auth

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazocruz/geoviewer/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := store.New(t.TempDir(), zerolog.Nop())
	return New(DefaultConfig(), st, zerolog.Nop())
}

func loginAdmin(t *testing.T, s *Service) {
	t.Helper()
	require.True(t, s.Login("admin", "admin123"))
}

func TestLogin(t *testing.T) {
	s := newTestService(t)

	assert.False(t, s.Login("admin", "wrong"))
	assert.False(t, s.Login("nobody", "admin123"))
	_, ok := s.Session()
	assert.False(t, ok, "failed login must leave no session")

	require.True(t, s.Login("admin", "admin123"))
	sess, ok := s.Session()
	require.True(t, ok)
	assert.Equal(t, "admin", sess.Username)
	assert.True(t, s.HasPermission(PermManageUsers))
}

func TestLogout(t *testing.T) {
	s := newTestService(t)
	loginAdmin(t, s)

	s.Logout()
	_, ok := s.Session()
	assert.False(t, ok)
	assert.False(t, s.HasPermission(PermRead), "permissions require a session")

	// logging out twice is harmless
	s.Logout()
}

func TestRestoreSession(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, zerolog.Nop())

	s1 := New(DefaultConfig(), st, zerolog.Nop())
	require.True(t, s1.Login("geologo1", "geo123"))

	s2 := New(DefaultConfig(), st, zerolog.Nop())
	require.True(t, s2.RestoreSession())
	sess, ok := s2.Session()
	require.True(t, ok)
	assert.Equal(t, "geologo1", sess.Username)
}

func TestRestoreSessionDiscardsUnknownUser(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, zerolog.Nop())

	s1 := New(DefaultConfig(), st, zerolog.Nop())
	require.True(t, s1.Login("admin", "admin123"))
	require.NoError(t, s1.AddUser("temp", User{
		Password: "temp123", Name: "Temporal", Email: "t@x.com", Role: "viewer",
	}))
	require.True(t, s1.Login("temp", "temp123"))

	// the persisted session names temp, but the user table no longer has it
	require.NoError(t, st.Delete(store.KeyCustomUsers))

	s2 := New(DefaultConfig(), st, zerolog.Nop())
	assert.False(t, s2.RestoreSession(), "stale session must be discarded")
	_, ok := s2.Session()
	assert.False(t, ok)

	// and the stored session is gone, so a second restore stays false
	assert.False(t, s2.RestoreSession())
}

func TestAddUserRequiresManageUsers(t *testing.T) {
	s := newTestService(t)
	require.True(t, s.Login("viewer", "viewer123"))

	err := s.AddUser("nuevo", User{Password: "pw", Name: "N", Email: "n@x.com", Role: "viewer"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAddUser(t *testing.T) {
	s := newTestService(t)
	loginAdmin(t, s)

	require.NoError(t, s.AddUser("nuevo", User{
		Password: "pw123", Name: "Nuevo", Email: "n@x.com", Role: "editor",
	}))

	assert.ErrorIs(t, s.AddUser("nuevo", User{
		Password: "pw123", Name: "Nuevo", Email: "n@x.com", Role: "editor",
	}), ErrUserExists)

	assert.ErrorIs(t, s.AddUser("otro", User{Password: "pw"}), ErrIncompleteUser)

	// permissions come from the role table, not the caller
	var rec UserRecord
	for _, r := range s.Users() {
		if r.Username == "nuevo" {
			rec = r
		}
	}
	assert.ElementsMatch(t, []string{PermRead, PermWrite, PermExportData}, rec.Permissions)
	assert.Equal(t, 7, s.UserCount())
}

func TestAddUserUnknownRoleGetsReadOnly(t *testing.T) {
	s := newTestService(t)
	loginAdmin(t, s)

	require.NoError(t, s.AddUser("raro", User{
		Password: "pw123", Name: "R", Email: "r@x.com", Role: "inventado",
	}))
	for _, r := range s.Users() {
		if r.Username == "raro" {
			assert.Equal(t, []string{PermRead}, r.Permissions)
		}
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestService(t)
	loginAdmin(t, s)

	assert.ErrorIs(t, s.UpdateUser("admin", User{Name: "X"}), ErrSystemUser)
	assert.ErrorIs(t, s.UpdateUser("fantasma", User{Name: "X"}), ErrUserNotFound)

	// geologo1 is seeded but not a base archetype, so it can be updated
	require.NoError(t, s.UpdateUser("geologo1", User{Role: "viewer"}))
	for _, r := range s.Users() {
		if r.Username == "geologo1" {
			assert.Equal(t, "viewer", r.Role)
			assert.Equal(t, []string{PermRead}, r.Permissions, "role change recomputes permissions")
		}
	}
}

func TestDeleteUser(t *testing.T) {
	s := newTestService(t)
	loginAdmin(t, s)

	assert.ErrorIs(t, s.DeleteUser("geologo1"), ErrSystemUser)
	assert.ErrorIs(t, s.DeleteUser("fantasma"), ErrUserNotFound)

	require.NoError(t, s.AddUser("efimero", User{
		Password: "pw123", Name: "E", Email: "e@x.com", Role: "viewer",
	}))
	require.NoError(t, s.DeleteUser("efimero"))
	assert.Equal(t, 6, s.UserCount())
}

func TestDeactivateBlocksLogin(t *testing.T) {
	s := newTestService(t)
	loginAdmin(t, s)

	require.NoError(t, s.DeactivateUser("consultor1"))
	assert.False(t, s.Login("consultor1", "cons123"))
	assert.Equal(t, 5, s.ActiveUserCount())

	require.True(t, s.Login("admin", "admin123"))
	require.NoError(t, s.ActivateUser("consultor1"))
	assert.True(t, s.Login("consultor1", "cons123"))
}

func TestCustomUsersSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, zerolog.Nop())

	s1 := New(DefaultConfig(), st, zerolog.Nop())
	require.True(t, s1.Login("admin", "admin123"))
	require.NoError(t, s1.AddUser("persistente", User{
		Password: "pw123", Name: "P", Email: "p@x.com", Role: "viewer",
	}))

	s2 := New(DefaultConfig(), st, zerolog.Nop())
	assert.Equal(t, 7, s2.UserCount())
	assert.True(t, s2.Login("persistente", "pw123"))
}

func TestPasswordPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SystemConfig.PasswordPolicy = &PasswordPolicy{MinLength: 8, RequireNumbers: true}

	st := store.New(t.TempDir(), zerolog.Nop())
	s := New(cfg, st, zerolog.Nop())
	require.True(t, s.Login("admin", "admin123"))

	err := s.AddUser("debil", User{Password: "corta", Name: "D", Email: "d@x.com", Role: "viewer"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	assert.NoError(t, s.AddUser("fuerte", User{
		Password: "larga1234", Name: "F", Email: "f@x.com", Role: "viewer",
	}))
}

func TestUserLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SystemConfig.MaxUsers = 6 // already at capacity with the seeds

	st := store.New(t.TempDir(), zerolog.Nop())
	s := New(cfg, st, zerolog.Nop())
	require.True(t, s.Login("admin", "admin123"))

	err := s.AddUser("uno_mas", User{Password: "pw123", Name: "U", Email: "u@x.com", Role: "viewer"})
	assert.ErrorIs(t, err, ErrUserLimit)
}

func TestLoadConfigFallsBack(t *testing.T) {
	cfg, err := LoadConfig("/no/such/users.json")
	require.Error(t, err)
	require.NotNil(t, cfg, "fallback config must always be usable")
	assert.Len(t, cfg.Users, 6)
	assert.Len(t, cfg.Roles, 3)
}
