package sales

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/stockbook/internal/catalog"
	"github.com/odyssey-erp/stockbook/internal/platform/httpx"
	"github.com/odyssey-erp/stockbook/internal/pricing"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/internal/view"
)

// Handler serves the sales pages and the sales JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pages   *view.Pages
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Pages) *Handler {
	return &Handler{logger: logger, service: service, pages: pages}
}

// MountRoutes registers the sales pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
}

// MountAPI registers the sales JSON endpoints.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/", h.apiList)
	r.Post("/", h.apiCreate)
	r.Post("/quote", h.apiQuote)
}

type listData struct {
	Sales      []Sale
	Pagination shared.Pagination
}

type formData struct {
	Products []catalog.Product
	Input    SaleInput
	Quote    *pricing.SaleQuote
	Errors   map[string]string
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePage(r.URL.Query().Get("page"))
	items, pg, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), page, shared.DefaultPerPage)
	if err != nil {
		h.logger.Error("list sales failed", slog.Any("error", err))
		http.Error(w, "No se pudieron cargar las ventas", http.StatusInternalServerError)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "pages/sales/list.html", "Ventas", listData{Sales: items, Pagination: pg})
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	in := NewSaleInput()
	if id, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64); err == nil {
		in.ProductID = id
	}
	h.renderForm(w, r, http.StatusOK, in, nil)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Solicitud inválida", http.StatusBadRequest)
		return
	}
	in := inputFromForm(r.PostForm)
	_, err := h.service.Record(r.Context(), shared.UserIDFromContext(r.Context()), in)
	var fieldErrs shared.FieldErrors
	switch {
	case err == nil:
		h.pages.RedirectWithFlash(w, r, "/sales/new", shared.FlashSuccess, "La venta se guardó con éxito.")
	case errors.As(err, &fieldErrs):
		h.renderForm(w, r, http.StatusUnprocessableEntity, in, fieldErrs)
	case errors.Is(err, ErrExceedsStock):
		h.renderForm(w, r, http.StatusUnprocessableEntity, in, map[string]string{"quantity": "La cantidad supera el stock disponible."})
	case errors.Is(err, ErrProductNotFound):
		h.renderForm(w, r, http.StatusUnprocessableEntity, in, map[string]string{"product_id": "El producto no existe."})
	case errors.Is(err, ErrDuplicateSubmission):
		h.pages.RedirectWithFlash(w, r, "/sales", shared.FlashInfo, "La venta ya había sido registrada.")
	default:
		h.logger.Error("record sale failed", slog.Any("error", err))
		h.renderForm(w, r, http.StatusInternalServerError, in, map[string]string{"general": "No se pudo guardar la venta. Por favor intentá nuevamente."})
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, in SaleInput, errs map[string]string) {
	ownerID := shared.UserIDFromContext(r.Context())
	products, err := h.service.Products(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("load products for sale form failed", slog.Any("error", err))
		http.Error(w, "No se pudieron cargar los productos", http.StatusInternalServerError)
		return
	}
	data := formData{Products: products, Input: in, Errors: errs}
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	for _, p := range products {
		if p.ID == in.ProductID {
			q := pricing.QuoteSale(p.Stock, in.Inputs(p.SalesUnitPrice))
			data.Quote = &q
			break
		}
	}
	// A rejected submission keeps its key so a resubmit stays idempotent.
	if data.Input.IdempotencyKey == "" || status == http.StatusOK {
		data.Input.IdempotencyKey = uuid.NewString()
	}
	h.pages.Render(w, r, status, "pages/sales/form.html", "Nueva venta", data)
}

type listResponse struct {
	Items   []Sale `json:"items"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

func (h *Handler) apiList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = shared.DefaultPerPage
	}
	items, pg, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()), shared.ParsePage(q.Get("page")), perPage)
	if err != nil {
		h.apiError(w, err)
		return
	}
	if items == nil {
		items = []Sale{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Total: pg.Total, Page: pg.Page, PerPage: pg.PerPage})
}

func (h *Handler) apiCreate(w http.ResponseWriter, r *http.Request) {
	in := NewSaleInput()
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}
	sale, err := h.service.Record(r.Context(), shared.UserIDFromContext(r.Context()), in)
	if err != nil {
		h.apiError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) apiQuote(w http.ResponseWriter, r *http.Request) {
	in := NewSaleInput()
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Quote(r.Context(), shared.UserIDFromContext(r.Context()), in)
	if err != nil {
		h.apiError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) apiError(w http.ResponseWriter, err error) {
	var fieldErrs shared.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		httpx.ValidationProblem(w, fieldErrs)
	case errors.Is(err, ErrExceedsStock):
		httpx.ValidationProblem(w, map[string]string{"quantity": err.Error()})
	case errors.Is(err, ErrProductNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, ErrDuplicateSubmission):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, err))
	default:
		h.logger.Error("sales api failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

// inputFromForm reads a sale form. Unparsable numbers count as zero.
func inputFromForm(form url.Values) SaleInput {
	productID, _ := strconv.ParseInt(form.Get("product_id"), 10, 64)
	return SaleInput{
		ProductID:       productID,
		Quantity:        pricing.CoerceInt(form.Get("quantity")),
		DiscountKind:    string(pricing.ParseAdjustmentKind(form.Get("discount_kind"))),
		Discount:        pricing.Coerce(form.Get("discount")),
		ExtraChargeKind: string(pricing.ParseAdjustmentKind(form.Get("extra_charge_kind"))),
		ExtraCharge:     pricing.Coerce(form.Get("extra_charge")),
		IdempotencyKey:  form.Get("idempotency_key"),
	}
}
