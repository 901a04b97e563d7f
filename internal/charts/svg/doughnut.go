package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Doughnut renders the share of every label in the total as ring slices
// with a legend. Non positive values get no slice.
func Doughnut(width, height int, series []float64, labels []string, opts DoughnutOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	var total float64
	for _, v := range series {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return "", fmt.Errorf("svg: nothing to draw")
	}
	colors := opts.Colors
	if len(colors) == 0 {
		colors = []string{"#01A8A7"}
	}
	hole := opts.HoleRatio
	if hole <= 0 || hole >= 1 {
		hole = DefaultHoleRatio
	}
	textColor := fallback(opts.TextColor, defaultAxisColor)

	radius := math.Min(float64(height), float64(width)/2)/2 - 8
	if radius <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	cx, cy := radius+8, float64(height)/2
	inner := radius * hole

	f := frame{width: width, height: height}
	var b strings.Builder
	f.open(&b, opts.Title, opts.Description, "doughnut", "Gráfico de anillo", "Participación por producto")

	angle := -math.Pi / 2
	for i, v := range series {
		if v <= 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi
		color := colors[i%len(colors)]
		label := template.HTMLEscapeString(labels[i])
		if sweep >= 2*math.Pi-1e-9 {
			// A single slice is a full ring; arcs cannot span 360 degrees.
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\"><title>%s: %s</title></circle>",
				cx, cy, (radius+inner)/2, color, radius-inner, label, formatTick(v))
		} else {
			fmt.Fprintf(&b, "<path d=\"%s\" fill=\"%s\"><title>%s: %s</title></path>",
				slicePath(cx, cy, radius, inner, angle, angle+sweep), color, label, formatTick(v))
		}
		angle += sweep
	}

	legendX := cx + radius + 24
	for i, label := range labels {
		y := 20 + float64(i)*16
		if y > float64(height)-8 {
			break
		}
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, y-9, colors[i%len(colors)])
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\">%s (%.0f%%)</text>",
			legendX+14, y, textColor, template.HTMLEscapeString(label), math.Max(series[i], 0)/total*100)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func slicePath(cx, cy, outer, inner, from, to float64) string {
	large := 0
	if to-from > math.Pi {
		large = 1
	}
	ox1, oy1 := cx+outer*math.Cos(from), cy+outer*math.Sin(from)
	ox2, oy2 := cx+outer*math.Cos(to), cy+outer*math.Sin(to)
	ix1, iy1 := cx+inner*math.Cos(to), cy+inner*math.Sin(to)
	ix2, iy2 := cx+inner*math.Cos(from), cy+inner*math.Sin(from)
	return fmt.Sprintf("M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 0 %.2f %.2f Z",
		ox1, oy1, outer, outer, large, ox2, oy2, ix1, iy1, inner, inner, large, ix2, iy2)
}
