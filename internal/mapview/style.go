package mapview

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
)

// RenderStyle is the resolved drawing instruction for one geometry. The
// web client applies it verbatim when building its vector styles.
type RenderStyle struct {
	Kind        string  `json:"kind"` // point, line or polygon
	Radius      float64 `json:"radius,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// StyleFunc resolves a style per geometry type.
type StyleFunc func(orb.Geometry) RenderStyle

// NewStyleFunc builds the import style for a chosen hex color: points are
// colored circles with a white 2px outline, lines a colored 2px stroke,
// polygons a colored 2px stroke over a 30%-opacity fill of the same color.
func NewStyleFunc(color string) StyleFunc {
	fill := rgbaFill(color, 0.3)

	return func(g orb.Geometry) RenderStyle {
		switch g.(type) {
		case orb.Point, orb.MultiPoint:
			return RenderStyle{
				Kind:        "point",
				Radius:      6,
				Fill:        color,
				Stroke:      "#ffffff",
				StrokeWidth: 2,
			}
		case orb.LineString, orb.MultiLineString:
			return RenderStyle{
				Kind:        "line",
				Stroke:      color,
				StrokeWidth: 2,
			}
		default:
			return RenderStyle{
				Kind:        "polygon",
				Fill:        fill,
				Stroke:      color,
				StrokeWidth: 2,
			}
		}
	}
}

// rgbaFill converts a #rrggbb color to an rgba() string with the given
// alpha. Unparseable input falls back to the default layer blue.
func rgbaFill(hexColor string, alpha float64) string {
	hex := hexColor
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		hex = "3388ff"
	}

	r, err1 := strconv.ParseUint(hex[0:2], 16, 8)
	g, err2 := strconv.ParseUint(hex[2:4], 16, 8)
	b, err3 := strconv.ParseUint(hex[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		r, g, b = 0x33, 0x88, 0xff
	}

	return fmt.Sprintf("rgba(%d, %d, %d, %.1f)", r, g, b, alpha)
}
