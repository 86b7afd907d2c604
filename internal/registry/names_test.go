package registry

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Zona Urbana", "Zona_Urbana"},
		{"  muchos   espacios  ", "muchos_espacios"},
		{"Geoquímica franja 1", "Geoqumica_franja_1"},
		{"ya_normalizado", "ya_normalizado"},
		{"símbolos!@#", "smbolos"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeName(c.in); got != c.want {
			t.Errorf("NormalizeName(%q)=%q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatGeneric(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Zona_Urbana", "Zona Urbana"},
		{"un__doble", "un doble"},
		{"simple", "simple"},
	}
	for _, c := range cases {
		if got := formatGeneric(c.in); got != c.want {
			t.Errorf("formatGeneric(%q)=%q, want %q", c.in, got, c.want)
		}
	}
}
