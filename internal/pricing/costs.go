package pricing

// DefaultTaxRatePercent is applied to new products.
const DefaultTaxRatePercent = 21.0

// Costs are the cost inputs of a product.
type Costs struct {
	UnitPrice         float64 `json:"unit_price"`
	TransportCost     float64 `json:"transport_cost"`
	TaxRatePercent    float64 `json:"tax_rate_percent"`
	OtherTaxesPercent float64 `json:"other_taxes_percent"`
}

// GrossUnitPrice is the fully loaded cost of one unit: net price plus taxes
// and transport.
func GrossUnitPrice(c Costs) float64 {
	unit := Finite(c.UnitPrice)
	return Round2(unit*Finite(c.TaxRatePercent)/100 + unit + Finite(c.TransportCost) + unit*Finite(c.OtherTaxesPercent)/100)
}

// SuggestedSalesPrice applies the expected profit percentage on top of the
// gross unit price.
func SuggestedSalesPrice(gross, expectedProfitPercent float64) float64 {
	gross = Finite(gross)
	return Round2(gross*Finite(expectedProfitPercent)/100 + gross)
}

// EstimatedProfit is the per unit margin.
func EstimatedProfit(sales, gross float64) float64 {
	return Round2(Finite(sales) - Finite(gross))
}

// ExpectedProfitPercent derives the profit percentage a sales price implies.
// When gross is zero the percentage is undefined; the result is then 0 and
// ok is false.
func ExpectedProfitPercent(sales, gross float64) (pct float64, ok bool) {
	gross = Finite(gross)
	if gross == 0 {
		return 0, false
	}
	return Round2(Finite(sales)*100/gross - 100), true
}
