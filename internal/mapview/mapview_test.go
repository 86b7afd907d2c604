package mapview

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
)

func point(x, y float64) *geojson.Feature {
	return geojson.NewFeature(orb.Point{x, y})
}

func TestReadyHandshake(t *testing.T) {
	m := New(zerolog.Nop())

	select {
	case <-m.Ready():
		t.Fatal("map ready before MarkReady")
	default:
	}

	m.MarkReady()
	m.MarkReady() // idempotent

	select {
	case <-m.Ready():
	default:
		t.Fatal("map not ready after MarkReady")
	}
}

func TestLayerStack(t *testing.T) {
	m := New(zerolog.Nop())
	a := NewVectorLayer("A", []*geojson.Feature{point(0, 0)}, NewStyleFunc("#ff0000"))
	b := NewVectorLayer("B", []*geojson.Feature{point(1, 1)}, NewStyleFunc("#00ff00"))

	m.AddLayer(a)
	m.AddLayer(b)
	if !m.HasLayer(a) || !m.HasLayer(b) {
		t.Fatal("layers missing from stack")
	}

	m.RemoveLayer(a)
	if m.HasLayer(a) {
		t.Fatal("layer a still on map")
	}
	m.RemoveLayer(a) // absent, no-op
	if len(m.Layers()) != 1 {
		t.Fatalf("len=%d, want 1", len(m.Layers()))
	}
}

func TestZoomClamping(t *testing.T) {
	m := New(zerolog.Nop())

	for i := 0; i < 40; i++ {
		m.ZoomIn()
	}
	if z := m.View().Zoom; z != maxZoom {
		t.Fatalf("zoom=%v, want %v", z, maxZoom)
	}

	for i := 0; i < 40; i++ {
		m.ZoomOut()
	}
	if z := m.View().Zoom; z != minZoom {
		t.Fatalf("zoom=%v, want %v", z, minZoom)
	}
}

func TestResetView(t *testing.T) {
	m := New(zerolog.Nop())
	home := m.View()

	m.ZoomIn()
	m.FitExtent(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{100, 100}})
	m.ResetView()

	if got := m.View(); got != home {
		t.Fatalf("view=%+v, want home %+v", got, home)
	}
}

func TestFitExtent(t *testing.T) {
	m := New(zerolog.Nop())

	b := orb.Bound{
		Min: orb.Point{-7893376, -1997065},
		Max: orb.Point{-7691292, -1840761},
	}
	if !m.FitExtent(b) {
		t.Fatal("fit of valid extent failed")
	}

	v := m.View()
	if v.Center != b.Center() {
		t.Fatalf("center=%v, want %v", v.Center, b.Center())
	}
	if v.Zoom < minZoom || v.Zoom > fitMaxZoom {
		t.Fatalf("zoom=%v outside [%v, %v]", v.Zoom, minZoom, fitMaxZoom)
	}
}

func TestFitExtentCapsZoom(t *testing.T) {
	m := New(zerolog.Nop())

	// a tiny extent would fit at an enormous zoom; the import cap holds
	tiny := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0.001, 0.001}}
	if !m.FitExtent(tiny) {
		t.Fatal("fit of tiny extent failed")
	}
	if z := m.View().Zoom; z != fitMaxZoom {
		t.Fatalf("zoom=%v, want cap %v", z, fitMaxZoom)
	}
}

func TestFitExtentSkipsDegenerate(t *testing.T) {
	m := New(zerolog.Nop())
	before := m.View()

	cases := []orb.Bound{
		{Min: orb.Point{5, 5}, Max: orb.Point{5, 5}},
		{Min: orb.Point{math.NaN(), 0}, Max: orb.Point{1, 1}},
		{Min: orb.Point{0, 0}, Max: orb.Point{math.Inf(1), 1}},
	}
	for _, b := range cases {
		if m.FitExtent(b) {
			t.Fatalf("fit accepted degenerate extent %v", b)
		}
	}
	if m.View() != before {
		t.Fatal("degenerate fit changed the view")
	}
}

func TestVectorLayerExtent(t *testing.T) {
	l := NewVectorLayer("T", []*geojson.Feature{
		point(0, 0), point(10, 20), point(-5, 3),
	}, NewStyleFunc("#3388ff"))

	want := orb.Bound{Min: orb.Point{-5, 0}, Max: orb.Point{10, 20}}
	if l.Extent() != want {
		t.Fatalf("extent=%v, want %v", l.Extent(), want)
	}
	if !l.Visible() {
		t.Fatal("new layer not visible")
	}
	if l.FeatureCount() != 3 {
		t.Fatalf("count=%d, want 3", l.FeatureCount())
	}
}

func TestStylePerGeometry(t *testing.T) {
	style := NewStyleFunc("#e6194b")

	pt := style(orb.Point{0, 0})
	if pt.Kind != "point" || pt.Radius != 6 || pt.Fill != "#e6194b" || pt.Stroke != "#ffffff" || pt.StrokeWidth != 2 {
		t.Fatalf("point style=%+v", pt)
	}

	line := style(orb.LineString{{0, 0}, {1, 1}})
	if line.Kind != "line" || line.Stroke != "#e6194b" || line.StrokeWidth != 2 {
		t.Fatalf("line style=%+v", line)
	}

	poly := style(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
	if poly.Kind != "polygon" || poly.Stroke != "#e6194b" {
		t.Fatalf("polygon style=%+v", poly)
	}
	if poly.Fill != "rgba(230, 25, 75, 0.3)" {
		t.Fatalf("polygon fill=%q", poly.Fill)
	}
}

func TestStyleBadColorFallsBack(t *testing.T) {
	style := NewStyleFunc("garbage")
	poly := style(orb.Polygon{})
	if poly.Fill != "rgba(51, 136, 255, 0.3)" {
		t.Fatalf("fill=%q", poly.Fill)
	}
}
