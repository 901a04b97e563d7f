package pricing

// AdjustmentKind says how a discount or extra charge is expressed.
type AdjustmentKind string

const (
	// Percentage adjusts by a percentage of the running total.
	Percentage AdjustmentKind = "percentage"
	// Amount adjusts by a fixed amount.
	Amount AdjustmentKind = "amount"
)

// ParseAdjustmentKind defaults to Percentage.
func ParseAdjustmentKind(raw string) AdjustmentKind {
	if AdjustmentKind(raw) == Amount {
		return Amount
	}
	return Percentage
}

// Adjustment is a discount or an extra charge.
type Adjustment struct {
	Kind  AdjustmentKind `json:"kind"`
	Value float64        `json:"value"`
}

func (a Adjustment) of(total float64) float64 {
	if a.Kind == Amount {
		return Finite(a.Value)
	}
	return total * Finite(a.Value) / 100
}

// SaleInputs are the fields of a sale form.
type SaleInputs struct {
	SalesUnitPrice float64    `json:"sales_unit_price"`
	Quantity       int        `json:"quantity"`
	Discount       Adjustment `json:"discount"`
	ExtraCharge    Adjustment `json:"extra_charge"`
}

// SaleTotal prices a sale: price times quantity, less the discount, plus
// the extra charge, rounding to cents after each stage. Negative
// adjustments are the caller's problem.
func SaleTotal(in SaleInputs) float64 {
	total := Round2(Finite(in.SalesUnitPrice) * float64(in.Quantity))
	total = Round2(total - in.Discount.of(total))
	return Round2(total + in.ExtraCharge.of(total))
}

// ExceedsStock reports whether a quantity cannot be served from stock.
func ExceedsStock(quantity, stock int) bool {
	return quantity > stock
}

// SaleQuote is what a sale form shows before submission.
type SaleQuote struct {
	SalesPrice     float64 `json:"sales_price"`
	RemainingStock int     `json:"remaining_stock"`
	SalesTotal     float64 `json:"sales_total"`
	ExceedsStock   bool    `json:"exceeds_stock"`
}

// QuoteSale prices a sale against the current stock.
func QuoteSale(stock int, in SaleInputs) SaleQuote {
	return SaleQuote{
		SalesPrice:     Finite(in.SalesUnitPrice),
		RemainingStock: stock - in.Quantity,
		SalesTotal:     SaleTotal(in),
		ExceedsStock:   ExceedsStock(in.Quantity, stock),
	}
}

// SaleMarginPercent is the share of a sale total that is profit over the
// gross cost of the units sold. Zero totals yield 0.
func SaleMarginPercent(salesTotal, grossUnitPrice float64, quantity int) float64 {
	salesTotal = Finite(salesTotal)
	if salesTotal == 0 {
		return 0
	}
	return Finite((salesTotal - Finite(grossUnitPrice)*float64(quantity)) / salesTotal * 100)
}
