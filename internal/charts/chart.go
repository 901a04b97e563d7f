// Package charts builds the balance and sales charts of an owner.
package charts

import (
	"errors"
	"fmt"

	"github.com/odyssey-erp/stockbook/internal/period"
	"github.com/odyssey-erp/stockbook/internal/pricing"
)

// ErrUnknownChart is returned by ParseKind.
var ErrUnknownChart = errors.New("charts: unknown chart")

// Kind names a chart.
type Kind string

const (
	// KindBalance compares money in stock with money taken in.
	KindBalance Kind = "balance"
	// KindProfits sums sale margins per bucket.
	KindProfits Kind = "profits"
	// KindSales sums sale totals per bucket.
	KindSales Kind = "sales"
	// KindProducts sums sale totals per product.
	KindProducts Kind = "products"
)

// Kinds lists every chart.
var Kinds = []Kind{KindBalance, KindProfits, KindSales, KindProducts}

// ParseKind accepts chart names and the selector values of the chart pages.
func ParseKind(raw string) (Kind, error) {
	switch raw {
	case string(KindBalance), "investmentsAndSales":
		return KindBalance, nil
	case string(KindProfits):
		return KindProfits, nil
	case string(KindSales), "salesInTime":
		return KindSales, nil
	case string(KindProducts), "salesPerProduct":
		return KindProducts, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChart, raw)
	}
}

// Balance chart categories.
const (
	LabelNetInvestment   = "Inversión Neta"
	LabelGrossInvestment = "Inversión Bruta"
	LabelTotalSales      = "Ventas Totales"
)

var balanceColors = []string{"#F47A79", "#FEE27F", "#8BDFCE"}

// Palette colours the slices of the per product chart, in label order.
var Palette = []string{
	"#01A8A7", "#26CDBF", "#FDFFF7", "#FF98A1", "#5C5C5C", "#192021",
	"#F6EEDA", "#C2B9AB", "#6E6E6E", "#6D6D6D", "#FCF1A5", "#0071AD",
	"#011524", "#A4D8A0", "#495967", "#412650", "#7958B5", "#EBDAED",
	"#FFAE01", "#E9E8AA", "#A2CC6D", "#F57B12",
}

// Chart is a render ready series.
type Chart struct {
	Kind       Kind                `json:"kind"`
	Lapse      period.Lapse        `json:"lapse"`
	Title      string              `json:"title"`
	Labels     []string            `json:"labels"`
	Values     []float64           `json:"values"`
	Colors     []string            `json:"colors,omitempty"`
	Investment *pricing.Investment `json:"investment,omitempty"`
}

// Empty reports whether the chart has nothing to draw.
func (c Chart) Empty() bool {
	for _, v := range c.Values {
		if v != 0 {
			return false
		}
	}
	return true
}
