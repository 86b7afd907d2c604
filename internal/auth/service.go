package auth

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mazocruz/geoviewer/internal/store"
)

var (
	// ErrPermissionDenied is returned when the active session lacks the
	// capability an operation requires.
	ErrPermissionDenied = errors.New("no tiene permisos para gestionar usuarios")
	// ErrUserExists is returned when adding a username that is taken.
	ErrUserExists = errors.New("el usuario ya existe")
	// ErrUserNotFound is returned when operating on an unknown username.
	ErrUserNotFound = errors.New("usuario no encontrado")
	// ErrSystemUser is returned when mutating a system-seeded user.
	ErrSystemUser = errors.New("no se pueden modificar usuarios del sistema")
	// ErrIncompleteUser is returned when required user fields are missing.
	ErrIncompleteUser = errors.New("datos de usuario incompletos")
	// ErrUserLimit is returned when the user table is at max_users.
	ErrUserLimit = errors.New("límite de usuarios alcanzado")
	// ErrWeakPassword is returned when a password fails the policy.
	ErrWeakPassword = errors.New("la contraseña no cumple la política")

	errMissingTables = errors.New("users.json missing users or roles")
)

// seedUsernames are bootstrapped users that can never be deleted.
var seedUsernames = map[string]bool{
	"admin": true, "editor": true, "viewer": true,
	"geologo1": true, "geologo2": true, "consultor1": true,
}

// baseUsernames are the role-archetype users that cannot be updated either.
var baseUsernames = map[string]bool{"admin": true, "editor": true, "viewer": true}

// Service owns the user table, the role table and the active session.
// Custom (non-seeded) users are persisted to the store on every mutation
// and merged back in at construction.
type Service struct {
	mu      sync.RWMutex
	users   map[string]User
	roles   map[string]Role
	config  SystemConfig
	session *Session

	store *store.Store
	bus   *Bus
	log   zerolog.Logger
}

// New builds the service from a loaded config, merging persisted custom
// users on top of the configured table.
func New(cfg *Config, st *store.Store, log zerolog.Logger) *Service {
	s := &Service{
		users:  make(map[string]User, len(cfg.Users)),
		roles:  make(map[string]Role, len(cfg.Roles)),
		config: cfg.SystemConfig,
		store:  st,
		bus:    NewBus(log),
		log:    log.With().Str("component", "auth").Logger(),
	}
	for name, u := range cfg.Users {
		s.users[name] = u
	}
	for id, r := range cfg.Roles {
		s.roles[id] = r
	}

	var custom map[string]User
	if ok, err := st.Get(store.KeyCustomUsers, &custom); err != nil {
		s.log.Warn().Err(err).Msg("custom users blob unreadable, ignoring")
	} else if ok {
		for name, u := range custom {
			if !seedUsernames[name] {
				s.users[name] = u
			}
		}
	}
	return s
}

// Events exposes the auth event bus.
func (s *Service) Events() *Bus { return s.bus }

// Login authenticates by exact password match against an existing, active
// user. On success it updates the user's last-login date, persists the
// session and emits a login event. On failure it returns false and leaves
// no session behind.
func (s *Service) Login(username, password string) bool {
	s.mu.Lock()

	user, ok := s.users[username]
	if !ok || user.Password != password || !user.IsActive() {
		s.mu.Unlock()
		s.log.Info().Str("user", username).Msg("authentication failed")
		return false
	}

	user.LastLogin = time.Now().Format("2006-01-02")
	s.users[username] = user

	sess := Session{
		Username:    username,
		Role:        user.Role,
		Name:        user.Name,
		Email:       user.Email,
		Permissions: user.Permissions,
	}
	s.session = &sess
	s.mu.Unlock()

	if err := s.store.Set(store.KeySession, sess); err != nil {
		s.log.Error().Err(err).Msg("persisting session")
	}
	s.bus.Publish(Event{Kind: EventLogin, Username: username, Session: &sess})
	s.log.Info().Str("user", username).Msg("authenticated")
	return true
}

// Logout clears the active session, removes it from storage and emits a
// logout event. Safe to call without a session.
func (s *Service) Logout() {
	s.mu.Lock()
	var username string
	if s.session != nil {
		username = s.session.Username
	}
	s.session = nil
	s.mu.Unlock()

	if err := s.store.Delete(store.KeySession); err != nil {
		s.log.Error().Err(err).Msg("removing persisted session")
	}
	s.bus.Publish(Event{Kind: EventLogout})
	s.log.Info().Str("user", username).Msg("logged out")
}

// RestoreSession loads a previously persisted session. A session whose
// user no longer exists, or is inactive, is discarded and removed from
// storage: the caller must force a fresh login.
func (s *Service) RestoreSession() bool {
	var sess Session
	ok, err := s.store.Get(store.KeySession, &sess)
	if err != nil {
		s.log.Warn().Err(err).Msg("persisted session unreadable, discarding")
		s.store.Delete(store.KeySession)
		return false
	}
	if !ok {
		return false
	}

	s.mu.Lock()
	user, known := s.users[sess.Username]
	if !known || !user.IsActive() {
		s.session = nil
		s.mu.Unlock()
		s.store.Delete(store.KeySession)
		s.log.Info().Str("user", sess.Username).Msg("stale session discarded")
		return false
	}
	s.session = &sess
	s.mu.Unlock()

	s.bus.Publish(Event{Kind: EventLogin, Username: sess.Username, Session: &sess})
	s.log.Info().Str("user", sess.Username).Msg("session restored")
	return true
}

// Session returns the active session.
func (s *Service) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// HasPermission reports whether the active session holds the permission
// token. Without a session it is always false, never an error.
func (s *Service) HasPermission(perm string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil && s.session.HasPermission(perm)
}

// AddUser creates a user. Requires manage_users; password, name, email and
// role are mandatory; the permission set is derived from the role table,
// never taken from the caller.
func (s *Service) AddUser(username string, u User) error {
	if !s.HasPermission(PermManageUsers) {
		return ErrPermissionDenied
	}

	s.mu.Lock()

	if _, exists := s.users[username]; exists {
		s.mu.Unlock()
		return ErrUserExists
	}
	if u.Password == "" || u.Name == "" || u.Email == "" || u.Role == "" {
		s.mu.Unlock()
		return ErrIncompleteUser
	}
	if s.config.MaxUsers > 0 && len(s.users) >= s.config.MaxUsers {
		s.mu.Unlock()
		return ErrUserLimit
	}
	if p := s.config.PasswordPolicy; p != nil && !p.Validate(u.Password) {
		s.mu.Unlock()
		return ErrWeakPassword
	}

	if role, ok := s.roles[u.Role]; ok {
		u.Permissions = append([]string(nil), role.Permissions...)
	} else {
		u.Permissions = []string{PermRead}
	}
	u.CreatedAt = time.Now().Format("2006-01-02")
	u.Active = nil

	s.users[username] = u
	s.saveCustomUsers()
	s.mu.Unlock()

	s.bus.Publish(Event{Kind: EventUserAdded, Username: username})
	s.log.Info().Str("user", username).Str("role", u.Role).Msg("user added")
	return nil
}

// UpdateUser merges the non-empty fields of u into an existing user. The
// base system users are immutable. A role change recomputes the permission
// set from the role table.
func (s *Service) UpdateUser(username string, u User) error {
	if !s.HasPermission(PermManageUsers) {
		return ErrPermissionDenied
	}

	s.mu.Lock()

	current, exists := s.users[username]
	if !exists {
		s.mu.Unlock()
		return ErrUserNotFound
	}
	if baseUsernames[username] {
		s.mu.Unlock()
		return ErrSystemUser
	}

	if u.Password != "" {
		current.Password = u.Password
	}
	if u.Name != "" {
		current.Name = u.Name
	}
	if u.Email != "" {
		current.Email = u.Email
	}
	if len(u.Attributes) > 0 {
		if current.Attributes == nil {
			current.Attributes = make(map[string]string, len(u.Attributes))
		}
		for k, v := range u.Attributes {
			current.Attributes[k] = v
		}
	}
	if u.Role != "" {
		current.Role = u.Role
		if role, ok := s.roles[u.Role]; ok {
			current.Permissions = append([]string(nil), role.Permissions...)
		}
	}

	s.users[username] = current
	s.saveCustomUsers()
	s.mu.Unlock()

	s.bus.Publish(Event{Kind: EventUserUpdated, Username: username})
	s.log.Info().Str("user", username).Msg("user updated")
	return nil
}

// DeleteUser removes a user. Seeded users cannot be deleted.
func (s *Service) DeleteUser(username string) error {
	if !s.HasPermission(PermManageUsers) {
		return ErrPermissionDenied
	}

	s.mu.Lock()

	if seedUsernames[username] {
		s.mu.Unlock()
		return fmt.Errorf("%w: no se pueden eliminar", ErrSystemUser)
	}
	if _, exists := s.users[username]; !exists {
		s.mu.Unlock()
		return ErrUserNotFound
	}

	delete(s.users, username)
	s.saveCustomUsers()
	s.mu.Unlock()

	s.bus.Publish(Event{Kind: EventUserDeleted, Username: username})
	s.log.Info().Str("user", username).Msg("user deleted")
	return nil
}

// DeactivateUser marks a user inactive; an inactive user cannot log in and
// any restored session for it is discarded.
func (s *Service) DeactivateUser(username string) error {
	return s.setActive(username, false, EventUserDeactivated)
}

// ActivateUser re-enables a deactivated user.
func (s *Service) ActivateUser(username string) error {
	return s.setActive(username, true, EventUserActivated)
}

func (s *Service) setActive(username string, active bool, kind EventKind) error {
	if !s.HasPermission(PermManageUsers) {
		return ErrPermissionDenied
	}

	s.mu.Lock()

	user, exists := s.users[username]
	if !exists {
		s.mu.Unlock()
		return ErrUserNotFound
	}

	user.Active = &active
	s.users[username] = user
	s.saveCustomUsers()
	s.mu.Unlock()

	s.bus.Publish(Event{Kind: kind, Username: username})
	s.log.Info().Str("user", username).Bool("active", active).Msg("user state changed")
	return nil
}

// Users returns every user sorted by username.
func (s *Service) Users() []UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]UserRecord, 0, len(s.users))
	for name, u := range s.users {
		records = append(records, UserRecord{Username: name, User: u})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Username < records[j].Username })
	return records
}

// ActiveUserCount returns how many users can currently log in.
func (s *Service) ActiveUserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, u := range s.users {
		if u.IsActive() {
			n++
		}
	}
	return n
}

// UserCount returns the total user count.
func (s *Service) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// IsSystemUser reports whether a username belongs to the seeded table.
func (s *Service) IsSystemUser(username string) bool {
	return seedUsernames[username]
}

// RoleDisplayName returns the role's display name, falling back to the id.
func (s *Service) RoleDisplayName(role string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.roles[role]; ok {
		return r.Name
	}
	return role
}

// RoleDescription returns the role's description, empty when unknown.
func (s *Service) RoleDescription(role string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[role].Description
}

// Roles returns the role table.
func (s *Service) Roles() map[string]Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Role, len(s.roles))
	for id, r := range s.roles {
		out[id] = r
	}
	return out
}

// SystemConfig returns the loaded system settings.
func (s *Service) SystemConfig() SystemConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// saveCustomUsers persists every non-seeded user. Callers hold s.mu.
func (s *Service) saveCustomUsers() {
	custom := make(map[string]User)
	for name, u := range s.users {
		if !seedUsernames[name] {
			custom[name] = u
		}
	}
	if err := s.store.Set(store.KeyCustomUsers, custom); err != nil {
		s.log.Error().Err(err).Msg("persisting custom users")
	}
}
