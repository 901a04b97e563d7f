// Package svg renders the chart pages' graphics server side.
package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the bar chart renderer. Colors are used per bar and
// cycle when shorter than the series.
type BarOpts struct {
	Title       string
	Description string
	Colors      []string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// DoughnutOpts customises the doughnut renderer.
type DoughnutOpts struct {
	Title       string
	Description string
	Colors      []string
	TextColor   string
	// HoleRatio is the inner radius as a share of the outer radius.
	HoleRatio float64
}

// Defaults for the charts.
const (
	DefaultWidth     = 720
	DefaultHeight    = 280
	DefaultPadding   = 32.0
	DefaultTicks     = 5
	DefaultHoleRatio = 0.55
)

const (
	defaultAxisColor = "#475569"
	defaultGridColor = "#cbd5e1"
)
