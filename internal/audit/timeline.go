// Package audit lists an owner's recorded activity: product changes and
// sales, as written to audit_logs.
package audit

import "time"

// TimelineFilters holds the timeline query.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one audit entry.
type TimelineRow struct {
	At       time.Time      `json:"at"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Label is the display name of the row's action.
func (r TimelineRow) Label() string {
	if label, ok := actionLabels[r.Action]; ok {
		return label
	}
	return r.Action
}

var actionLabels = map[string]string{
	"product.create": "Producto creado",
	"product.update": "Producto actualizado",
	"product.delete": "Producto eliminado",
	"sale.create":    "Venta registrada",
}

// PagingInfo is simple next/previous paging.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// Result wraps a timeline page.
type Result struct {
	Rows   []TimelineRow
	Paging PagingInfo
}

// ViewModel gathers the timeline template data.
type ViewModel struct {
	Filters TimelineFilters
	Rows    []TimelineRow
	Paging  PagingInfo
}
