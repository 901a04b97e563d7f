// Package sales records sales against the catalog and keeps stock in step.
package sales

import (
	"errors"
	"time"

	"github.com/odyssey-erp/stockbook/internal/pricing"
)

var (
	ErrExceedsStock        = errors.New("sales: quantity exceeds stock")
	ErrProductNotFound     = errors.New("sales: product not found")
	ErrDuplicateSubmission = errors.New("sales: sale already recorded")
)

// ProductSnapshot is the product as it was when the sale happened.
type ProductSnapshot struct {
	ID             int64   `json:"id,omitempty"`
	Name           string  `json:"name"`
	GrossUnitPrice float64 `json:"gross_unit_price"`
	SalesUnitPrice float64 `json:"sales_unit_price"`
}

// Stocked is the product row a sale is priced against.
type Stocked struct {
	ProductSnapshot
	Stock int
}

// Sale is a recorded sale.
type Sale struct {
	ID             int64              `json:"id"`
	OwnerID        int64              `json:"-"`
	Product        ProductSnapshot    `json:"product"`
	Quantity       int                `json:"quantity"`
	SalesPrice     float64            `json:"sales_price"`
	RemainingStock int                `json:"remaining_stock"`
	Discount       pricing.Adjustment `json:"discount"`
	ExtraCharge    pricing.Adjustment `json:"extra_charge"`
	SalesTotal     float64            `json:"sales_total"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// MarginPercent is the profit share of the sale total.
func (s Sale) MarginPercent() float64 {
	return pricing.SaleMarginPercent(s.SalesTotal, s.Product.GrossUnitPrice, s.Quantity)
}

// SaleInput is a submitted sale form.
type SaleInput struct {
	ProductID       int64   `form:"product_id" json:"product_id" validate:"required"`
	Quantity        int     `form:"quantity" json:"quantity" validate:"min=1"`
	DiscountKind    string  `form:"discount_kind" json:"discount_kind" validate:"omitempty,oneof=percentage amount"`
	Discount        float64 `form:"discount" json:"discount" validate:"gte=0"`
	ExtraChargeKind string  `form:"extra_charge_kind" json:"extra_charge_kind" validate:"omitempty,oneof=percentage amount"`
	ExtraCharge     float64 `form:"extra_charge" json:"extra_charge" validate:"gte=0"`
	IdempotencyKey  string  `form:"idempotency_key" json:"idempotency_key" validate:"max=100"`
}

// NewSaleInput is the blank sale form.
func NewSaleInput() SaleInput {
	return SaleInput{
		Quantity:        1,
		DiscountKind:    string(pricing.Percentage),
		ExtraChargeKind: string(pricing.Percentage),
	}
}

// Inputs prices the form against the product's current sales price.
func (in SaleInput) Inputs(salesUnitPrice float64) pricing.SaleInputs {
	return pricing.SaleInputs{
		SalesUnitPrice: salesUnitPrice,
		Quantity:       in.Quantity,
		Discount:       pricing.Adjustment{Kind: pricing.ParseAdjustmentKind(in.DiscountKind), Value: pricing.Finite(in.Discount)},
		ExtraCharge:    pricing.Adjustment{Kind: pricing.ParseAdjustmentKind(in.ExtraChargeKind), Value: pricing.Finite(in.ExtraCharge)},
	}
}
