package status

import (
	"fmt"
	"math"
)

// Color is an RGB color with channels in [0, 1], the representation the
// spreadsheet backend reports for cell backgrounds.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Pair is the background/foreground combination written to a record row.
type Pair struct {
	Background Color `json:"background"`
	Foreground Color `json:"foreground"`
}

var (
	Black = Color{0, 0, 0}
	White = Color{1, 1, 1}
)

// DefaultEpsilon is the per-channel tolerance used when comparing observed colors.
const DefaultEpsilon = 0.05

var backgrounds = map[Status]Color{
	Pending:         {R: 0.812, G: 0.886, B: 0.953},
	ReviewUploaded:  {R: 0.851, G: 0.824, B: 0.914},
	ReviewForwarded: {R: 0.984, G: 0.737, B: 0.016},
	Paid:            {R: 0.106, G: 0.522, B: 0.267},
	Completed:       {R: 1, G: 1, B: 0},
}

// ColorFor returns the canonical pair for a status. The foreground is always
// derived from the background so the two can never disagree.
func ColorFor(s Status) (Pair, bool) {
	bg, ok := backgrounds[s]
	if !ok {
		return Pair{}, false
	}

	return Pair{Background: bg, Foreground: Foreground(bg)}, true
}

// Foreground picks black or white text for a background by relative luminance.
func Foreground(bg Color) Color {
	if luminance(bg) > 0.5 {
		return Black
	}

	return White
}

// PairFor wraps an arbitrary observed background with its legible foreground.
func PairFor(bg Color) Pair {
	return Pair{Background: bg, Foreground: Foreground(bg)}
}

func luminance(c Color) float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Within reports whether every channel of a and b differs by at most eps.
func Within(a, b Color, eps float64) bool {
	return math.Abs(a.R-b.R) <= eps &&
		math.Abs(a.G-b.G) <= eps &&
		math.Abs(a.B-b.B) <= eps
}

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
