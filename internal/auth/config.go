package auth

import (
	"encoding/json"
	"os"
)

// Config is the users.json document: the user table, the role table and
// the system settings. When the file is absent or malformed the built-in
// table below is used instead.
type Config struct {
	Users        map[string]User  `json:"users"`
	Roles        map[string]Role  `json:"roles"`
	SystemConfig SystemConfig     `json:"system_config"`
	Metadata     map[string]any   `json:"metadata,omitempty"`
}

// LoadConfig reads a users.json document. Any failure (missing file, bad
// JSON, no users) falls back to the default table; the error describes why
// the fallback was taken so the caller can log it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}
	if len(cfg.Users) == 0 || len(cfg.Roles) == 0 {
		return DefaultConfig(), errMissingTables
	}
	return &cfg, nil
}

// DefaultConfig returns the built-in user/role table the system seeds
// itself with when no users.json is available.
func DefaultConfig() *Config {
	return &Config{
		Users: map[string]User{
			"admin": {
				Password:    "admin123",
				Role:        "admin",
				Name:        "Administrador del Sistema",
				Email:       "admin@geologia.com",
				Permissions: []string{PermRead, PermWrite, PermDelete, PermManageUsers, PermImportData, PermExportData},
				CreatedAt:   "2024-01-01",
			},
			"editor": {
				Password:    "editor123",
				Role:        "editor",
				Name:        "Editor Geológico Principal",
				Email:       "editor@geologia.com",
				Permissions: []string{PermRead, PermWrite, PermExportData},
				CreatedAt:   "2024-01-01",
			},
			"viewer": {
				Password:    "viewer123",
				Role:        "viewer",
				Name:        "Usuario de Consulta",
				Email:       "viewer@geologia.com",
				Permissions: []string{PermRead},
				CreatedAt:   "2024-01-01",
			},
			"geologo1": {
				Password:    "geo123",
				Role:        "editor",
				Name:        "Dr. María González",
				Email:       "m.gonzalez@geologia.com",
				Permissions: []string{PermRead, PermWrite},
				CreatedAt:   "2024-03-15",
				Attributes:  map[string]string{"especialidad": "Geología Estructural"},
			},
			"geologo2": {
				Password:    "geo456",
				Role:        "editor",
				Name:        "Lic. Carlos Rodríguez",
				Email:       "c.rodriguez@geologia.com",
				Permissions: []string{PermRead, PermWrite},
				CreatedAt:   "2024-04-20",
				Attributes:  map[string]string{"especialidad": "Mineralogía"},
			},
			"consultor1": {
				Password:    "cons123",
				Role:        "viewer",
				Name:        "Ing. Ana Martínez",
				Email:       "a.martinez@consultoria.com",
				Permissions: []string{PermRead},
				CreatedAt:   "2024-05-10",
				Attributes:  map[string]string{"empresa": "Geoconsult S.A."},
			},
		},
		Roles: map[string]Role{
			"admin": {
				Name:        "Administrador",
				Description: "Acceso completo al sistema",
				Permissions: []string{PermRead, PermWrite, PermDelete, PermManageUsers, PermImportData, PermExportData, PermSystemConfig},
			},
			"editor": {
				Name:        "Editor Geológico",
				Description: "Puede visualizar y editar datos geológicos",
				Permissions: []string{PermRead, PermWrite, PermExportData},
			},
			"viewer": {
				Name:        "Visualizador",
				Description: "Solo puede visualizar datos",
				Permissions: []string{PermRead},
			},
		},
		SystemConfig: SystemConfig{
			MaxUsers:          50,
			SessionTimeout:    3600,
			AllowRegistration: false,
			DefaultRole:       "viewer",
		},
	}
}
