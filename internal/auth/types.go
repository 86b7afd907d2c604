// Package auth holds the user table, roles, permission checks and the
// single viewer session. Passwords are stored and compared in plaintext:
// that is how the system it replaces behaves and it is kept deliberately
// for fidelity. Do not reuse this package anywhere that needs real
// credential security.
package auth

import "strings"

// Permission tokens. A role bundles a set of these; users carry a
// denormalized copy derived from their role.
const (
	PermRead         = "read"
	PermWrite        = "write"
	PermDelete       = "delete"
	PermManageUsers  = "manage_users"
	PermImportData   = "import_data"
	PermExportData   = "export_data"
	PermSystemConfig = "system_config"
)

// User is one entry in the user table.
type User struct {
	Password    string            `json:"password"`
	Role        string            `json:"role"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Permissions []string          `json:"permissions"`
	CreatedAt   string            `json:"created_at,omitempty"`
	LastLogin   string            `json:"last_login,omitempty"`
	Active      *bool             `json:"active,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// IsActive treats a missing flag as active, matching the config format
// where only deactivated users carry the field.
func (u User) IsActive() bool {
	return u.Active == nil || *u.Active
}

// HasPermission reports whether the user's permission set contains perm.
func (u User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// UserRecord pairs a username with its user entry for listings.
type UserRecord struct {
	Username string `json:"username"`
	User
}

// Role is a named bundle of permissions. Roles are static: loaded at
// startup, never created or modified at runtime.
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// Session is the currently authenticated user. At most one session exists
// per data directory.
type Session struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the session's permission set contains perm.
func (s Session) HasPermission(perm string) bool {
	for _, p := range s.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// PasswordPolicy is the optional password validation policy from
// system_config.
type PasswordPolicy struct {
	MinLength           int  `json:"min_length"`
	RequireUppercase    bool `json:"require_uppercase"`
	RequireNumbers      bool `json:"require_numbers"`
	RequireSpecialChars bool `json:"require_special_chars"`
}

// Validate checks a password against the policy.
func (p PasswordPolicy) Validate(password string) bool {
	if len(password) < p.MinLength {
		return false
	}
	if p.RequireUppercase && !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		return false
	}
	if p.RequireNumbers && !strings.ContainsAny(password, "0123456789") {
		return false
	}
	if p.RequireSpecialChars && !strings.ContainsAny(password, `!@#$%^&*()_+-=[]{};':"\|,.<>/?`) {
		return false
	}
	return true
}

// SystemConfig carries the system-wide settings from users.json.
type SystemConfig struct {
	MaxUsers          int             `json:"max_users"`
	SessionTimeout    int             `json:"session_timeout"`
	AllowRegistration bool            `json:"allow_registration"`
	DefaultRole       string          `json:"default_role"`
	PasswordPolicy    *PasswordPolicy `json:"password_policy,omitempty"`
}

// permissionNames maps tokens to the labels shown in the profile view.
var permissionNames = map[string]string{
	PermRead:         "Lectura de datos",
	PermWrite:        "Escritura de datos",
	PermDelete:       "Eliminación de datos",
	PermManageUsers:  "Gestión de usuarios",
	PermImportData:   "Importación de datos",
	PermExportData:   "Exportación de datos",
	PermSystemConfig: "Configuración del sistema",
}

// PermissionDisplayName returns the human label for a permission token,
// or the token itself when unknown.
func PermissionDisplayName(perm string) string {
	if name, ok := permissionNames[perm]; ok {
		return name
	}
	return perm
}
