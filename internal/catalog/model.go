// Package catalog manages the products of each owner.
package catalog

import (
	"errors"
	"time"

	"github.com/odyssey-erp/stockbook/internal/pricing"
)

var (
	ErrNotFound             = errors.New("catalog: product not found")
	ErrDuplicateName        = errors.New("catalog: product name already exists")
	ErrConfirmationRequired = errors.New("catalog: delete must be confirmed")
	ErrInvalidID            = errors.New("catalog: invalid product id")
)

// Product is a stock item with its cost breakdown and derived prices.
type Product struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"-"`
	Name    string `json:"name"`
	Stock   int    `json:"stock"`
	pricing.Fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Holding returns the view of p used by the investment summary.
func (p Product) Holding() pricing.Holding {
	return pricing.Holding{UnitPrice: p.UnitPrice, GrossUnitPrice: p.GrossUnitPrice, Stock: p.Stock}
}

// ProductInput is a submitted product form.
type ProductInput struct {
	Name                  string            `form:"name" json:"name" validate:"required,min=3,max=120"`
	Stock                 int               `form:"stock" json:"stock" validate:"gte=0"`
	UnitPrice             float64           `form:"unit_price" json:"unit_price" validate:"gte=0"`
	TransportCost         float64           `form:"transport_cost" json:"transport_cost" validate:"gte=0"`
	TaxRatePercent        float64           `form:"tax_rate_percent" json:"tax_rate_percent" validate:"gte=0"`
	OtherTaxesPercent     float64           `form:"other_taxes_percent" json:"other_taxes_percent" validate:"gte=0"`
	ExpectedProfitPercent float64           `form:"expected_profit_percent" json:"expected_profit_percent"`
	SalesUnitPrice        float64           `form:"sales_unit_price" json:"sales_unit_price" validate:"gte=0"`
	Direction             pricing.Direction `form:"pricing_direction" json:"pricing_direction"`
}

// NewProductInput is the blank form: default tax rate, everything else zero.
func NewProductInput() ProductInput {
	return ProductInput{TaxRatePercent: pricing.DefaultTaxRatePercent}
}

// InputFrom fills a form from a stored product.
func InputFrom(p Product) ProductInput {
	return ProductInput{
		Name:                  p.Name,
		Stock:                 p.Stock,
		UnitPrice:             p.UnitPrice,
		TransportCost:         p.TransportCost,
		TaxRatePercent:        p.TaxRatePercent,
		OtherTaxesPercent:     p.OtherTaxesPercent,
		ExpectedProfitPercent: p.ExpectedProfitPercent,
		SalesUnitPrice:        p.SalesUnitPrice,
		Direction:             pricing.DirectionForward,
	}
}

func (in ProductInput) fields() pricing.Fields {
	return pricing.Fields{
		Costs: pricing.Costs{
			UnitPrice:         pricing.Finite(in.UnitPrice),
			TransportCost:     pricing.Finite(in.TransportCost),
			TaxRatePercent:    pricing.Finite(in.TaxRatePercent),
			OtherTaxesPercent: pricing.Finite(in.OtherTaxesPercent),
		},
		ExpectedProfitPercent: pricing.Finite(in.ExpectedProfitPercent),
		SalesUnitPrice:        pricing.Finite(in.SalesUnitPrice),
	}
}

// ListFilters narrows a product listing.
type ListFilters struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
}
