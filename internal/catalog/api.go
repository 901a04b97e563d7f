package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockbook/internal/platform/httpx"
	"github.com/odyssey-erp/stockbook/internal/pricing"
	"github.com/odyssey-erp/stockbook/internal/shared"
)

type listResponse struct {
	Items   []Product `json:"items"`
	Total   int       `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}

// PricingRequest is one edit event of the product form.
type PricingRequest struct {
	Fields  pricing.Fields    `json:"fields"`
	State   pricing.EditState `json:"state"`
	Changes []pricing.Change  `json:"changes"`
}

// PricingResponse carries the recomputed form and the reset state.
type PricingResponse struct {
	Fields pricing.Fields    `json:"fields"`
	State  pricing.EditState `json:"state"`
}

func (h *Handler) apiList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = shared.DefaultPerPage
	}
	filters := ListFilters{
		Page:    shared.ParsePage(q.Get("page")),
		PerPage: perPage,
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	products, total, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), filters)
	if err != nil {
		h.apiError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: products, Total: total, Page: filters.Page, PerPage: filters.PerPage})
}

func (h *Handler) apiGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.apiError(w, ErrInvalidID)
		return
	}
	p, err := h.service.Get(r.Context(), shared.UserIDFromContext(r.Context()), id)
	if err != nil {
		h.apiError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) apiCreate(w http.ResponseWriter, r *http.Request) {
	in := NewProductInput()
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), shared.UserIDFromContext(r.Context()), in)
	if err != nil {
		h.apiError(w, err)
		return
	}
	w.Header().Set("Location", "/api/products/"+strconv.FormatInt(p.ID, 10))
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) apiUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.apiError(w, ErrInvalidID)
		return
	}
	in := NewProductInput()
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), shared.UserIDFromContext(r.Context()), id, in)
	if err != nil {
		h.apiError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) apiDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.apiError(w, ErrInvalidID)
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), id, confirmed); err != nil {
		h.apiError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apiPricing(w http.ResponseWriter, r *http.Request) {
	var req PricingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	fields, state, err := h.service.Preview(req.Fields, req.State, req.Changes...)
	if err != nil {
		h.apiError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, PricingResponse{Fields: fields, State: state})
}

func (h *Handler) apiError(w http.ResponseWriter, err error) {
	var fieldErrs shared.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		httpx.ValidationProblem(w, fieldErrs)
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, ErrDuplicateName):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrDuplicate, err))
	case errors.Is(err, ErrConfirmationRequired):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, err))
	case errors.Is(err, ErrInvalidID), errors.Is(err, pricing.ErrUnknownField):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	default:
		h.logger.Error("product api failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
