package registry

import "strings"

// datasetNames maps the exported Mazocruz dataset layer names (as the GIS
// export tool writes them, sometimes with a numeric suffix) to readable
// titles.
var datasetNames = map[string]string{
	"ConcesionesSantaRosa_Mazocruz":   "Concesiones Santa Rosa Mazocruz",
	"ConcesionesSantaRosa_Mazocruz_1": "Concesiones Santa Rosa Mazocruz",
	"Volcanes":                        "Volcanes",
	"Volcanes_2":                      "Volcanes",
	"Geoquimica_franja1":              "Geoquímica Franja 1",
	"Geoqumica_franja1_3":             "Geoquímica Franja 1",
	"Accesos_principales":             "Accesos Principales",
	"Accesos_principales_4":           "Accesos Principales",
	"formaciones":                     "Formaciones Geológicas",
	"fallas":                          "Fallas",
	"mineralizaciones":                "Mineralizaciones",
	"sondeos":                         "Sondeos",
}

// NormalizeName derives a registry key from a display name: whitespace
// becomes underscores and everything outside [A-Za-z0-9_] is stripped.
func NormalizeName(displayName string) string {
	joined := strings.Join(strings.Fields(displayName), "_")

	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatGeneric is the fallback display transformation: underscores to
// spaces, whitespace collapsed and trimmed.
func formatGeneric(name string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
}
