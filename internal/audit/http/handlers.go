package audithttp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/stockbook/internal/audit"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/internal/view"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 50
	defaultDateRange = 30 * 24 * time.Hour
	maxDateRange     = 366 * 24 * time.Hour
	dateLayout       = "2006-01-02"
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, ownerID int64, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, ownerID int64, filters audit.TimelineFilters) ([]audit.TimelineRow, error)
}

// Handler serves the activity timeline.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	pages   *view.Pages
	now     func() time.Time
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service TimelineService, pages *view.Pages) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages, now: time.Now}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	result, err := h.service.Timeline(r.Context(), shared.UserIDFromContext(r.Context()), filters)
	if err != nil {
		h.handleServerError(w, "load activity timeline", err)
		return
	}
	vm := audit.ViewModel{Filters: filters, Rows: result.Rows, Paging: result.Paging}
	// The form shows the inclusive end day.
	vm.Filters.To = filters.To.AddDate(0, 0, -1)
	h.pages.Render(w, r, http.StatusOK, "pages/activity.html", "Actividad", vm)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	rows, err := h.service.Export(r.Context(), shared.UserIDFromContext(r.Context()), filters)
	if err != nil {
		h.handleServerError(w, "export activity timeline", err)
		return
	}
	var buf bytes.Buffer
	if err := audit.WriteCSV(&buf, rows); err != nil {
		h.handleServerError(w, "encode csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"stockbook-actividad.csv\"")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

// parseFilters reads from/to as inclusive days; To is returned as the
// exclusive upper bound.
func (h *Handler) parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	loc := h.now().Location()
	today := h.now().Format(dateLayout)

	toStr := strings.TrimSpace(q.Get("to"))
	if toStr == "" {
		toStr = today
	}
	toDay, err := time.ParseInLocation(dateLayout, toStr, loc)
	if err != nil {
		return audit.TimelineFilters{}, errInvalidFilter
	}
	fromDay := toDay.Add(-defaultDateRange)
	if fromStr := strings.TrimSpace(q.Get("from")); fromStr != "" {
		if fromDay, err = time.ParseInLocation(dateLayout, fromStr, loc); err != nil {
			return audit.TimelineFilters{}, errInvalidFilter
		}
	}
	if fromDay.After(toDay) || toDay.Sub(fromDay) > maxDateRange {
		return audit.TimelineFilters{}, errInvalidFilter
	}

	page := 1
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, errInvalidFilter
		}
		page = parsed
	}
	pageSize := defaultPageSize
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, errInvalidFilter
		}
		pageSize = min(parsed, maxPageSize)
	}

	entity := strings.TrimSpace(q.Get("entity"))
	if entity != "" && entity != "product" && entity != "sale" {
		return audit.TimelineFilters{}, errInvalidFilter
	}
	return audit.TimelineFilters{
		From:     fromDay,
		To:       toDay.AddDate(0, 0, 1),
		Entity:   entity,
		Action:   strings.TrimSpace(q.Get("action")),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

var errInvalidFilter = errors.New("audit: invalid filter")
