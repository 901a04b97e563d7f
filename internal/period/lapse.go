// Package period turns a chart lapse into query bounds, bucket labels and
// per bucket totals.
package period

import (
	"errors"
	"fmt"
)

// ErrUnknownLapse is returned by ParseLapse.
var ErrUnknownLapse = errors.New("period: unknown lapse")

// Lapse selects the aggregation window of a chart.
type Lapse string

// Supported lapses.
const (
	Week  Lapse = "week"
	Month Lapse = "month"
	Year  Lapse = "year"
)

// Lapses lists the selectable lapses in display order.
var Lapses = []Lapse{Week, Month, Year}

// ParseLapse accepts the lapse names; empty selects Week.
func ParseLapse(raw string) (Lapse, error) {
	switch Lapse(raw) {
	case "", Week:
		return Week, nil
	case Month:
		return Month, nil
	case Year:
		return Year, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLapse, raw)
	}
}

// Title is the selector caption.
func (l Lapse) Title() string {
	switch l {
	case Month:
		return "Último Mes"
	case Year:
		return "Último Año"
	default:
		return "Última Semana"
	}
}
