package svg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, []float64{100, 200, 150}, []string{"11/03/2024", "12/03/2024", "13/03/2024"}, LineOpts{
		Title:       "Ventas",
		Description: "Ventas por día",
		ShowDots:    true,
	})
	require.NoError(t, err)
	output := string(html)
	require.True(t, strings.HasPrefix(output, "<svg"))
	require.Contains(t, output, "<path")
	require.Contains(t, output, "aria-labelledby=\"ventas-line-title ventas-line-desc\"")
	require.Equal(t, 3, strings.Count(output, "<circle"))
	require.Contains(t, output, "13/03/2024")
}

func TestLineValidatesInput(t *testing.T) {
	_, err := Line(400, 200, nil, nil, LineOpts{})
	require.Error(t, err)
	_, err = Line(400, 200, []float64{1}, []string{"a", "b"}, LineOpts{})
	require.Error(t, err)
	_, err = Line(40, 40, []float64{1}, []string{"a"}, LineOpts{Padding: 30})
	require.Error(t, err)
}

func TestLineFlatSeries(t *testing.T) {
	html, err := Line(400, 200, []float64{0, 0, 0}, []string{"a", "b", "c"}, LineOpts{})
	require.NoError(t, err)
	require.NotContains(t, string(html), "NaN")
}

func TestBarsColoursEachBar(t *testing.T) {
	html, err := Bars(400, 200, []float64{100, 121, -20}, []string{"Inversión Neta", "Inversión Bruta", "Ventas Totales"}, BarOpts{
		Colors: []string{"#F47A79", "#FEE27F", "#8BDFCE"},
	})
	require.NoError(t, err)
	output := string(html)
	require.Equal(t, 3, strings.Count(output, "<rect"))
	for _, c := range []string{"#F47A79", "#FEE27F", "#8BDFCE"} {
		require.Contains(t, output, c)
	}
	require.NotContains(t, output, "height=\"-")
}

func TestDoughnut(t *testing.T) {
	html, err := Doughnut(400, 200, []float64{30, 10, 0}, []string{"Café", "Mate & Co", "Yerba"}, DoughnutOpts{
		Colors: []string{"#01A8A7", "#26CDBF", "#FDFFF7"},
	})
	require.NoError(t, err)
	output := string(html)
	require.Equal(t, 2, strings.Count(output, "<path"))
	require.Contains(t, output, "Mate &amp; Co (25%)")
	require.Contains(t, output, "Yerba (0%)")
}

func TestDoughnutSingleSliceIsRing(t *testing.T) {
	html, err := Doughnut(400, 200, []float64{5}, []string{"Yerba"}, DoughnutOpts{})
	require.NoError(t, err)
	require.Contains(t, string(html), "<circle")
	require.NotContains(t, string(html), "<path")
}

func TestDoughnutNeedsPositiveTotal(t *testing.T) {
	_, err := Doughnut(400, 200, []float64{0, 0}, []string{"a", "b"}, DoughnutOpts{})
	require.Error(t, err)
}
