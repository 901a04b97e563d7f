package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders one bar per label, each in its own colour.
func Bars(width, height int, series []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, series)
	if err != nil {
		return "", err
	}
	axisColor := fallback(opts.AxisColor, defaultAxisColor)
	gridColor := fallback(opts.GridColor, defaultGridColor)
	colors := opts.Colors
	if len(colors) == 0 {
		colors = []string{"#0ea5e9"}
	}

	var b strings.Builder
	f.open(&b, opts.Title, opts.Description, "bar", "Gráfico de barras", "Comparación de montos")
	f.grid(&b, axisColor, gridColor)

	groupWidth := f.chartWidth() / float64(len(labels))
	barWidth := groupWidth * 0.6
	zeroY := f.y(0)
	for i, label := range labels {
		x := f.padding + float64(i)*groupWidth + (groupWidth-barWidth)/2
		top := f.y(series[i])
		y := math.Min(top, zeroY)
		h := math.Abs(zeroY - top)
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"><title>%s: %s</title></rect>",
			x, y, barWidth, h, colors[i%len(colors)], template.HTMLEscapeString(label), formatTick(series[i]))
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"middle\">%s</text>",
			x+barWidth/2, f.bottom()+16, axisColor, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
