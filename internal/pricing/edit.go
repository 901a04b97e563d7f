package pricing

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned for edits on fields the policy does not know.
var ErrUnknownField = errors.New("pricing: unknown field")

// Field names a product form field.
type Field string

// Product form fields.
const (
	FieldName                  Field = "name"
	FieldStock                 Field = "stock"
	FieldUnitPrice             Field = "unit_price"
	FieldTransportCost         Field = "transport_cost"
	FieldTaxRatePercent        Field = "tax_rate_percent"
	FieldOtherTaxesPercent     Field = "other_taxes_percent"
	FieldExpectedProfitPercent Field = "expected_profit_percent"
	FieldSalesUnitPrice        Field = "sales_unit_price"
)

// Direction tells Recompute which way to derive prices.
type Direction string

const (
	// DirectionNone leaves every field untouched.
	DirectionNone Direction = ""
	// DirectionForward derives gross, sales price and profit from costs.
	DirectionForward Direction = "forward"
	// DirectionBackward derives the profit percentage from the sales price.
	DirectionBackward Direction = "backward"
)

// ParseDirection maps a submitted value onto a Direction. Anything unknown
// is forward.
func ParseDirection(raw string) Direction {
	if Direction(raw) == DirectionBackward {
		return DirectionBackward
	}
	return DirectionForward
}

// Direction reports which computation an edit of f drives.
func (f Field) Direction() (Direction, error) {
	switch f {
	case FieldUnitPrice, FieldTransportCost, FieldTaxRatePercent, FieldOtherTaxesPercent, FieldExpectedProfitPercent:
		return DirectionForward, nil
	case FieldSalesUnitPrice:
		return DirectionBackward, nil
	case FieldName, FieldStock:
		return DirectionNone, nil
	default:
		return DirectionNone, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
}

// Fields holds the price related state of one product form.
type Fields struct {
	Costs
	ExpectedProfitPercent float64 `json:"expected_profit_percent"`
	GrossUnitPrice        float64 `json:"gross_unit_price"`
	SalesUnitPrice        float64 `json:"sales_unit_price"`
	EstimatedProfit       float64 `json:"estimated_profit"`
}

// EditState is the per form session memory of the edit policy.
type EditState struct {
	LastTouched Direction `json:"last_touched"`
}

// Change is one user edit.
type Change struct {
	Field Field   `json:"field"`
	Value float64 `json:"value"`
}

// Touch records that the user edited f. A sales price edit wins over cost
// edits in the same event.
func Touch(state EditState, f Field) (EditState, error) {
	dir, err := f.Direction()
	if err != nil {
		return state, err
	}
	switch {
	case dir == DirectionNone:
	case dir == DirectionBackward:
		state.LastTouched = DirectionBackward
	case state.LastTouched != DirectionBackward:
		state.LastTouched = DirectionForward
	}
	return state, nil
}

// Recompute runs exactly one derivation, chosen by the state, and returns
// the state reset. Derived values written back by the caller are not edits
// and never reach Touch, so they cannot trigger another pass.
func Recompute(fields Fields, state EditState) (Fields, EditState) {
	switch state.LastTouched {
	case DirectionForward:
		fields.GrossUnitPrice = GrossUnitPrice(fields.Costs)
		fields.SalesUnitPrice = SuggestedSalesPrice(fields.GrossUnitPrice, fields.ExpectedProfitPercent)
		fields.EstimatedProfit = EstimatedProfit(fields.SalesUnitPrice, fields.GrossUnitPrice)
	case DirectionBackward:
		fields.GrossUnitPrice = GrossUnitPrice(fields.Costs)
		fields.ExpectedProfitPercent, _ = ExpectedProfitPercent(fields.SalesUnitPrice, fields.GrossUnitPrice)
		fields.EstimatedProfit = EstimatedProfit(fields.SalesUnitPrice, fields.GrossUnitPrice)
	}
	return fields, EditState{}
}

// ApplyEdit applies one change event (one or more field edits) and derives
// the dependent fields.
func ApplyEdit(fields Fields, state EditState, changes ...Change) (Fields, EditState, error) {
	for _, c := range changes {
		next, err := Touch(state, c.Field)
		if err != nil {
			return fields, state, err
		}
		state = next
		set(&fields, c.Field, Finite(c.Value))
	}
	fields, state = Recompute(fields, state)
	return fields, state, nil
}

// Reconcile derives fields for a save. Backward keeps the submitted sales
// price; anything else derives it from the costs.
func Reconcile(fields Fields, dir Direction) Fields {
	if dir != DirectionBackward {
		dir = DirectionForward
	}
	fields, _ = Recompute(fields, EditState{LastTouched: dir})
	return fields
}

func set(fields *Fields, f Field, v float64) {
	switch f {
	case FieldUnitPrice:
		fields.UnitPrice = v
	case FieldTransportCost:
		fields.TransportCost = v
	case FieldTaxRatePercent:
		fields.TaxRatePercent = v
	case FieldOtherTaxesPercent:
		fields.OtherTaxesPercent = v
	case FieldExpectedProfitPercent:
		fields.ExpectedProfitPercent = v
	case FieldSalesUnitPrice:
		fields.SalesUnitPrice = v
	}
}
