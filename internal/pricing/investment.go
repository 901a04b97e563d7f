package pricing

// Holding is a product as seen by the investment summary.
type Holding struct {
	UnitPrice      float64
	GrossUnitPrice float64
	Stock          int
}

// Investment summarises money tied up in stock against money taken in.
type Investment struct {
	Net           float64 `json:"net"`
	Gross         float64 `json:"gross"`
	TotalSales    float64 `json:"total_sales"`
	ProfitPercent float64 `json:"profit_percent"`
}

// SummarizeInvestment totals stock value at net and gross cost together with
// sales. ProfitPercent is rounded to a whole number and is 0 without gross
// investment.
func SummarizeInvestment(holdings []Holding, salesTotals []float64) Investment {
	var net, gross, sales float64
	for _, h := range holdings {
		net += Finite(h.UnitPrice) * float64(h.Stock)
		gross += Finite(h.GrossUnitPrice) * float64(h.Stock)
	}
	for _, total := range salesTotals {
		sales += Finite(total)
	}
	inv := Investment{Net: Round2(net), Gross: Round2(gross), TotalSales: Round2(sales)}
	if inv.Gross != 0 {
		inv.ProfitPercent = Round((inv.TotalSales-inv.Gross)/inv.Gross*100, 0)
	}
	return inv
}
