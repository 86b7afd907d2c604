// Package mapview owns the in-process map the viewer renders: vector
// layer handles with visibility state, the view (center + zoom in Web
// Mercator), and extent fitting. It replaces the externally constructed
// map object of the web viewer; readiness is signalled through an explicit
// handshake channel instead of being discovered by polling.
package mapview

import (
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

// Web Mercator world width in meters (EPSG:3857).
const worldSize = 2 * math.Pi * 6378137

const (
	fitPadding = 50.0 // px on each side when fitting an extent
	fitMaxZoom = 15.0
	minZoom    = 0.0
	maxZoom    = 19.0

	// Nominal viewport used to translate extents into zoom levels.
	viewportWidth  = 1024.0
	viewportHeight = 768.0
)

// homeExtent is the Mazocruz project area in EPSG:3857, the view the
// reset control returns to.
var homeExtent = orb.Bound{
	Min: orb.Point{-7893376.269607, -1997065.017214},
	Max: orb.Point{-7691292.977852, -1840761.536293},
}

// View is the current map viewport.
type View struct {
	Center orb.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
}

// Map holds the layer stack and the view.
type Map struct {
	mu     sync.RWMutex
	layers []*Layer
	view   View

	ready     chan struct{}
	readyOnce sync.Once
	log       zerolog.Logger
}

// New creates a map showing the home extent.
func New(log zerolog.Logger) *Map {
	m := &Map{
		ready: make(chan struct{}),
		log:   log.With().Str("component", "mapview").Logger(),
	}
	m.view = fitView(homeExtent, maxZoom)
	return m
}

// Ready is closed once the adapter has registered the base layers and
// restored persisted imports. Waiters select on it with their own context.
func (m *Map) Ready() <-chan struct{} { return m.ready }

// MarkReady completes the readiness handshake. Idempotent.
func (m *Map) MarkReady() {
	m.readyOnce.Do(func() {
		close(m.ready)
		m.log.Debug().Msg("map ready")
	})
}

// AddLayer appends a layer to the stack.
func (m *Map) AddLayer(l *Layer) {
	m.mu.Lock()
	m.layers = append(m.layers, l)
	m.mu.Unlock()
}

// RemoveLayer removes a layer from the stack, a no-op when absent.
func (m *Map) RemoveLayer(l *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.layers {
		if existing == l {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			return
		}
	}
}

// Layers returns the current layer stack, bottom first.
func (m *Map) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Layer(nil), m.layers...)
}

// HasLayer reports whether l is on the map.
func (m *Map) HasLayer(l *Layer) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, existing := range m.layers {
		if existing == l {
			return true
		}
	}
	return false
}

// View returns the current viewport.
func (m *Map) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// ZoomIn moves one zoom level closer.
func (m *Map) ZoomIn() { m.zoomBy(1) }

// ZoomOut moves one zoom level out.
func (m *Map) ZoomOut() { m.zoomBy(-1) }

func (m *Map) zoomBy(delta float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.Zoom = clamp(m.view.Zoom+delta, minZoom, maxZoom)
}

// ResetView returns to the home extent.
func (m *Map) ResetView() {
	m.mu.Lock()
	m.view = fitView(homeExtent, maxZoom)
	m.mu.Unlock()
}

// FitExtent animates the view to frame the extent with fixed padding and
// the import zoom cap. Non-finite or degenerate (zero-area) extents are
// skipped and the view is left unchanged.
func (m *Map) FitExtent(b orb.Bound) bool {
	if !finite(b.Min) || !finite(b.Max) {
		return false
	}
	if b.Max[0]-b.Min[0] <= 0 && b.Max[1]-b.Min[1] <= 0 {
		return false
	}

	m.mu.Lock()
	m.view = fitView(b, fitMaxZoom)
	m.mu.Unlock()
	return true
}

// fitView picks the center and the largest zoom at which the extent plus
// padding fits the nominal viewport.
func fitView(b orb.Bound, zoomCap float64) View {
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]

	resX := dx / (viewportWidth - 2*fitPadding)
	resY := dy / (viewportHeight - 2*fitPadding)
	res := math.Max(resX, resY)

	zoom := zoomCap
	if res > 0 {
		zoom = math.Floor(math.Log2(worldSize / 256 / res))
	}

	return View{
		Center: b.Center(),
		Zoom:   clamp(zoom, minZoom, zoomCap),
	}
}

func finite(p orb.Point) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
