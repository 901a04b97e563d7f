package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockbook/internal/charts"
	"github.com/odyssey-erp/stockbook/internal/period"
	"github.com/odyssey-erp/stockbook/internal/pricing"
)

func TestWriteChartCSV(t *testing.T) {
	chart := charts.Chart{
		Kind:   charts.KindSales,
		Lapse:  period.Week,
		Labels: []string{"14/03/2024", "15/03/2024"},
		Values: []float64{0, 275.5},
	}
	buf := &bytes.Buffer{}
	require.NoError(t, WriteChartCSV(buf, chart))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Periodo", "Valor"},
		{"14/03/2024", "0.00"},
		{"15/03/2024", "275.50"},
	}, records)
	require.Equal(t, "stockbook-sales-week.csv", Filename(chart))
}

func TestWriteBalanceCSVAddsProfitRow(t *testing.T) {
	chart := charts.Chart{
		Kind:       charts.KindBalance,
		Labels:     []string{charts.LabelNetInvestment, charts.LabelGrossInvestment, charts.LabelTotalSales},
		Values:     []float64{1000, 1210, 1815},
		Investment: &pricing.Investment{Net: 1000, Gross: 1210, TotalSales: 1815, ProfitPercent: 50},
	}
	buf := &bytes.Buffer{}
	require.NoError(t, WriteChartCSV(buf, chart))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	require.Equal(t, []string{"Concepto", "Valor"}, records[0])
	require.Equal(t, []string{"Ganancia (%)", "50.00"}, records[4])
}
