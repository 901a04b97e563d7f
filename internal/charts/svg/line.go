package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Line renders a responsive SVG line chart for the given series and labels.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
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
	strokeColor := fallback(opts.StrokeColor, "#26C6DA")
	fillColor := fallback(opts.FillColor, "rgba(38,198,218,0.15)")
	axisColor := fallback(opts.AxisColor, defaultAxisColor)
	gridColor := fallback(opts.GridColor, defaultGridColor)

	xs := make([]float64, len(series))
	var path strings.Builder
	for i, value := range series {
		xs[i] = f.pointX(i, len(series))
		if i == 0 {
			fmt.Fprintf(&path, "M%.2f %.2f", xs[i], f.y(value))
		} else {
			fmt.Fprintf(&path, " L%.2f %.2f", xs[i], f.y(value))
		}
	}

	var b strings.Builder
	f.open(&b, opts.Title, opts.Description, "line", "Gráfico de líneas", "Evolución en el tiempo")
	f.grid(&b, axisColor, gridColor)

	if fillColor != "" {
		base := f.y(0)
		fmt.Fprintf(&b, "<path d=\"%s L%.2f %.2f L%.2f %.2f Z\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>",
			path.String(), xs[len(xs)-1], base, xs[0], base, fillColor)
	}
	fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path.String(), strokeColor)

	for i, value := range series {
		if opts.ShowDots {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"><title>%s: %s</title></circle>",
				xs[i], f.y(value), strokeColor, template.HTMLEscapeString(labels[i]), formatTick(value))
		}
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>",
			xs[i], f.bottom()+14, axisColor, template.HTMLEscapeString(labels[i]))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// frame is the plotting area shared by the cartesian charts.
type frame struct {
	width, height int
	padding       float64
	ticks         int
	minVal        float64
	maxVal        float64
	scale         float64
}

func newFrame(width, height int, padding float64, ticks int, values ...[]float64) (frame, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if padding <= 0 {
		padding = DefaultPadding
	}
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	f := frame{width: width, height: height, padding: padding, ticks: ticks}
	if f.chartWidth() <= 0 || f.chartHeight() <= 0 {
		return frame{}, fmt.Errorf("svg: viewport too small")
	}
	for _, series := range values {
		for _, v := range series {
			f.minVal = math.Min(f.minVal, v)
			f.maxVal = math.Max(f.maxVal, v)
		}
	}
	if almostEqual(f.maxVal, f.minVal) {
		f.maxVal = f.minVal + 1
	}
	f.scale = f.chartHeight() / (f.maxVal - f.minVal)
	return f, nil
}

func (f frame) chartWidth() float64  { return float64(f.width) - 2*f.padding }
func (f frame) chartHeight() float64 { return float64(f.height) - 2*f.padding }
func (f frame) bottom() float64      { return f.padding + f.chartHeight() }

func (f frame) y(value float64) float64 {
	return f.bottom() - (value-f.minVal)*f.scale
}

func (f frame) pointX(i, n int) float64 {
	if n <= 1 {
		return f.padding + f.chartWidth()/2
	}
	return f.padding + float64(i)*f.chartWidth()/float64(n-1)
}

func (f frame) open(b *strings.Builder, title, desc, kind, defaultTitle, defaultDesc string) {
	titleID := makeID(title, kind+"-title")
	descID := makeID(title, kind+"-desc")
	fmt.Fprintf(b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", f.width, f.height, titleID, descID)
	fmt.Fprintf(b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(title, defaultTitle)))
	fmt.Fprintf(b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(desc, defaultDesc)))
}

func (f frame) grid(b *strings.Builder, axisColor, gridColor string) {
	for i := 0; i <= f.ticks; i++ {
		ratio := float64(i) / float64(f.ticks)
		y := f.bottom() - ratio*f.chartHeight()
		value := f.minVal + (f.maxVal-f.minVal)*ratio
		fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>",
			f.padding, y, f.padding+f.chartWidth(), y, gridColor)
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>",
			f.padding-6, y+4, axisColor, formatTick(value))
	}
	fmt.Fprintf(b, "<g stroke=\"%s\" aria-hidden=\"true\">", axisColor)
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, f.padding, f.padding, f.bottom())
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, f.y(0), f.padding+f.chartWidth(), f.y(0))
	b.WriteString("</g>")
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case almostEqual(v, math.Round(v)):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
