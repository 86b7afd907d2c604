package mapview

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Layer is a vector layer handle: a titled set of features (already
// projected to EPSG:3857), a style function and a visibility flag. The
// flag on the handle is the single source of truth for visibility; the
// registry mirrors it.
type Layer struct {
	mu      sync.RWMutex
	name    string
	title   string
	visible bool

	features []*geojson.Feature
	style    StyleFunc
	extent   orb.Bound
}

// NewVectorLayer builds a visible layer from projected features.
func NewVectorLayer(title string, features []*geojson.Feature, style StyleFunc) *Layer {
	l := &Layer{
		title:    title,
		visible:  true,
		features: features,
		style:    style,
	}
	for i, f := range features {
		b := f.Geometry.Bound()
		if i == 0 {
			l.extent = b
		} else {
			l.extent = l.extent.Union(b)
		}
	}
	return l
}

// SetName records the normalized registry name on the handle.
func (l *Layer) SetName(name string) {
	l.mu.Lock()
	l.name = name
	l.mu.Unlock()
}

// Name returns the normalized registry name, empty until registered.
func (l *Layer) Name() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.name
}

// Title returns the display title the layer was created with.
func (l *Layer) Title() string { return l.title }

// SetVisible toggles the layer on the map.
func (l *Layer) SetVisible(v bool) {
	l.mu.Lock()
	l.visible = v
	l.mu.Unlock()
}

// Visible reports whether the layer is drawn.
func (l *Layer) Visible() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.visible
}

// Features returns the layer's projected features.
func (l *Layer) Features() []*geojson.Feature { return l.features }

// FeatureCount returns the number of features.
func (l *Layer) FeatureCount() int { return len(l.features) }

// Extent returns the union bound of every feature geometry.
func (l *Layer) Extent() orb.Bound { return l.extent }

// Style returns the layer's style function.
func (l *Layer) Style() StyleFunc { return l.style }
