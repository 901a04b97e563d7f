// Package export writes charts in downloadable formats.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/stockbook/internal/charts"
)

// WriteChartCSV serialises a chart as label/value rows. Balance charts get
// a trailing profit percentage row.
func WriteChartCSV(w io.Writer, chart charts.Chart) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{header(chart.Kind), "Valor"}); err != nil {
		return err
	}
	for i, label := range chart.Labels {
		var value float64
		if i < len(chart.Values) {
			value = chart.Values[i]
		}
		if err := writer.Write([]string{label, formatFloat(value)}); err != nil {
			return err
		}
	}
	if chart.Investment != nil {
		if err := writer.Write([]string{"Ganancia (%)", formatFloat(chart.Investment.ProfitPercent)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Filename is the attachment name of a chart export.
func Filename(chart charts.Chart) string {
	return "stockbook-" + string(chart.Kind) + "-" + string(chart.Lapse) + ".csv"
}

func header(kind charts.Kind) string {
	switch kind {
	case charts.KindBalance:
		return "Concepto"
	case charts.KindProducts:
		return "Producto"
	default:
		return "Periodo"
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
