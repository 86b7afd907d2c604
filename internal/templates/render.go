// Package templates renders the HTML fragments pushed to the viewer UI
// over Datastar SSE.
package templates

import (
	"bytes"
	"html/template"
	"path/filepath"
	"sync"
)

var funcMap = template.FuncMap{
	// dict builds a map from key-value pairs so a parent template can pass
	// several values to a nested fragment.
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
}

// Renderer holds the parsed fragment templates.
type Renderer struct {
	mu        sync.RWMutex
	templates *template.Template
}

// New parses every *.html fragment under fragmentsDir.
func New(fragmentsDir string) (*Renderer, error) {
	tmpl, err := parse(fragmentsDir)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

func parse(fragmentsDir string) (*template.Template, error) {
	pattern := filepath.Join(fragmentsDir, "*.html")
	return template.New("").Funcs(funcMap).ParseGlob(pattern)
}

// Render executes a named fragment and returns the HTML.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer executes a named fragment into buf, for callers that
// concatenate several fragments into one patch.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates.ExecuteTemplate(buf, name, data)
}

// Reload re-parses the fragments from disk, for dev hot-reload.
func (r *Renderer) Reload(fragmentsDir string) error {
	tmpl, err := parse(fragmentsDir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()
	return nil
}
