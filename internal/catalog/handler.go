package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockbook/internal/pricing"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/internal/view"
)

const listPath = "/products"

// Handler serves the product pages and the product JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pages   *view.Pages
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Pages) *Handler {
	return &Handler{logger: logger, service: service, pages: pages}
}

type listData struct {
	Products   []Product
	Filters    ListFilters
	Pagination shared.Pagination
	Query      url.Values
}

type formData struct {
	ID      int64
	Input   ProductInput
	Derived pricing.Fields
	Errors  map[string]string
	Action  string
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Page:    shared.ParsePage(q.Get("page")),
		PerPage: shared.DefaultPerPage,
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	products, total, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), filters)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		http.Error(w, "No se pudieron cargar los productos", http.StatusInternalServerError)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "pages/products/list.html", "Productos", listData{
		Products:   products,
		Filters:    filters,
		Pagination: shared.NewPagination(filters.Page, filters.PerPage, total),
		Query:      q,
	})
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	in := NewProductInput()
	h.renderForm(w, r, http.StatusOK, 0, in, nil)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Solicitud inválida", http.StatusBadRequest)
		return
	}
	in := inputFromForm(r.PostForm)
	if _, err := h.service.Create(r.Context(), shared.UserIDFromContext(r.Context()), in); err != nil {
		h.formError(w, r, 0, in, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, listPath, shared.FlashSuccess, "El producto se guardó con éxito.")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Producto inválido", http.StatusBadRequest)
		return
	}
	p, err := h.service.Get(r.Context(), shared.UserIDFromContext(r.Context()), id)
	if err != nil {
		h.notFoundOrFail(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, p.ID, InputFrom(p), nil)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Producto inválido", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Solicitud inválida", http.StatusBadRequest)
		return
	}
	in := inputFromForm(r.PostForm)
	if _, err := h.service.Update(r.Context(), shared.UserIDFromContext(r.Context()), id, in); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFoundOrFail(w, r, err)
			return
		}
		h.formError(w, r, id, in, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, listPath, shared.FlashSuccess, "El producto se actualizó con éxito.")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Producto inválido", http.StatusBadRequest)
		return
	}
	confirmed := r.PostFormValue("confirm") == "yes"
	err = h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), id, confirmed)
	switch {
	case err == nil:
		h.pages.RedirectWithFlash(w, r, listPath, shared.FlashSuccess, "El producto se eliminó.")
	case errors.Is(err, ErrConfirmationRequired):
		h.pages.RedirectWithFlash(w, r, listPath+"/"+strconv.FormatInt(id, 10)+"/edit", shared.FlashError, "Confirmá la eliminación del producto.")
	case errors.Is(err, ErrNotFound):
		h.pages.RedirectWithFlash(w, r, listPath, shared.FlashError, "El producto no existe.")
	default:
		h.logger.Error("delete product failed", slog.Int64("id", id), slog.Any("error", err))
		h.pages.RedirectWithFlash(w, r, listPath, shared.FlashError, "No se pudo eliminar el producto.")
	}
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, id int64, in ProductInput, err error) {
	var fieldErrs shared.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		h.renderForm(w, r, http.StatusUnprocessableEntity, id, in, fieldErrs)
	case errors.Is(err, ErrDuplicateName):
		h.renderForm(w, r, http.StatusConflict, id, in, map[string]string{"name": "Ya existe un producto con ese nombre."})
	default:
		h.logger.Error("save product failed", slog.Int64("id", id), slog.Any("error", err))
		h.renderForm(w, r, http.StatusInternalServerError, id, in, map[string]string{"general": "No se pudo guardar el producto."})
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, id int64, in ProductInput, errs map[string]string) {
	action := listPath
	title := "Nuevo producto"
	if id > 0 {
		action = listPath + "/" + strconv.FormatInt(id, 10) + "/edit"
		title = "Editar producto"
	}
	if errs == nil {
		errs = map[string]string{}
	}
	h.pages.Render(w, r, status, "pages/products/form.html", title, formData{
		ID:      id,
		Input:   in,
		Derived: pricing.Reconcile(in.fields(), in.Direction),
		Errors:  errs,
		Action:  action,
	})
}

func (h *Handler) notFoundOrFail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("load product failed", slog.Any("error", err))
	http.Error(w, "No se pudo cargar el producto", http.StatusInternalServerError)
}

// inputFromForm reads a product form. Unparsable numbers count as zero.
func inputFromForm(form url.Values) ProductInput {
	return ProductInput{
		Name:                  form.Get("name"),
		Stock:                 pricing.CoerceInt(form.Get("stock")),
		UnitPrice:             pricing.Coerce(form.Get("unit_price")),
		TransportCost:         pricing.Coerce(form.Get("transport_cost")),
		TaxRatePercent:        pricing.Coerce(form.Get("tax_rate_percent")),
		OtherTaxesPercent:     pricing.Coerce(form.Get("other_taxes_percent")),
		ExpectedProfitPercent: pricing.Coerce(form.Get("expected_profit_percent")),
		SalesUnitPrice:        pricing.Coerce(form.Get("sales_unit_price")),
		Direction:             pricing.ParseDirection(form.Get("pricing_direction")),
	}
}
