package catalog

import "github.com/go-chi/chi/v5"

// MountRoutes registers the product pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/delete", h.Delete)
}

// MountAPI registers the product JSON endpoints.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/", h.apiList)
	r.Post("/", h.apiCreate)
	r.Post("/pricing", h.apiPricing)
	r.Get("/{id}", h.apiGet)
	r.Put("/{id}", h.apiUpdate)
	r.Delete("/{id}", h.apiDelete)
}
