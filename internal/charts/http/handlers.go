// Package charthttp serves the chart pages, exports and JSON endpoints.
package charthttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/stockbook/internal/charts"
	"github.com/odyssey-erp/stockbook/internal/charts/export"
	"github.com/odyssey-erp/stockbook/internal/charts/svg"
	"github.com/odyssey-erp/stockbook/internal/period"
	"github.com/odyssey-erp/stockbook/internal/platform/httpx"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/internal/view"
)

const requestTimeout = 2 * time.Second

// ChartService is the chart data contract used by the handler.
type ChartService interface {
	Chart(ctx context.Context, ownerID int64, kind charts.Kind, lapse period.Lapse) (charts.Chart, error)
}

// Handler coordinates HTTP requests for the chart pages.
type Handler struct {
	logger  *slog.Logger
	service ChartService
	pages   *view.Pages
	csvPool sync.Pool
}

// NewHandler constructs the chart HTTP handler.
func NewHandler(logger *slog.Logger, service ChartService, pages *view.Pages) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{logger: logger, service: service, pages: pages}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

// ChartView is one chart ready for a template.
type ChartView struct {
	Chart charts.Chart
	SVG   template.HTML
	Empty bool
}

type pageData struct {
	Page   string
	Lapse  period.Lapse
	Type   string
	Lapses []option
	Types  []option
	View   ChartView
}

type dashboardData struct {
	Balance ChartView
	Sales   ChartView
}

var pageTypes = map[string][]option{
	"balance": {
		{Value: "investmentsAndSales", Label: "Inversiones y Ventas"},
		{Value: "profits", Label: "Ganancias"},
	},
	"sales": {
		{Value: "salesInTime", Label: "Ventas en el tiempo"},
		{Value: "salesPerProduct", Label: "Ventas por producto"},
	},
}

// Balance renders the investment and profit charts.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "balance", "pages/charts/balance.html", "Balance")
}

// Sales renders the sales charts.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "sales", "pages/charts/sales.html", "Ventas")
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, page, tmpl, title string) {
	lapse, err := period.ParseLapse(r.URL.Query().Get("lapse"))
	if err != nil {
		http.Error(w, "Parámetro inválido", http.StatusBadRequest)
		return
	}
	types := pageTypes[page]
	selected := r.URL.Query().Get("type")
	if selected == "" {
		selected = types[0].Value
	}
	kind, err := charts.ParseKind(selected)
	if err != nil || !hasOption(types, selected) {
		http.Error(w, "Parámetro inválido", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	chart, err := h.service.Chart(ctx, shared.UserIDFromContext(r.Context()), kind, lapse)
	if err != nil {
		h.handleServerError(w, "load chart", err)
		return
	}
	cv, err := renderChart(chart)
	if err != nil {
		h.handleServerError(w, "render chart", err)
		return
	}

	data := pageData{Page: page, Lapse: lapse, Type: selected, View: cv}
	for _, l := range period.Lapses {
		data.Lapses = append(data.Lapses, option{Value: string(l), Label: l.Title(), Selected: l == lapse})
	}
	for _, t := range types {
		t.Selected = t.Value == selected
		data.Types = append(data.Types, t)
	}
	h.pages.Render(w, r, http.StatusOK, tmpl, title, data)
}

// Dashboard renders the weekly balance and sales charts side by side.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.UserIDFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var balance, sold charts.Chart
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = h.service.Chart(gctx, ownerID, charts.KindBalance, period.Week)
		return err
	})
	g.Go(func() error {
		var err error
		sold, err = h.service.Chart(gctx, ownerID, charts.KindSales, period.Week)
		return err
	})
	if err := g.Wait(); err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}

	var data dashboardData
	var err error
	if data.Balance, err = renderChart(balance); err != nil {
		h.handleServerError(w, "render chart", err)
		return
	}
	if data.Sales, err = renderChart(sold); err != nil {
		h.handleServerError(w, "render chart", err)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "pages/home.html", "Inicio", data)
}

// CSV streams one chart as a CSV attachment.
func (h *Handler) CSV(w http.ResponseWriter, r *http.Request) {
	kind, lapse, err := parseChart(r)
	if err != nil {
		http.Error(w, "Parámetro inválido", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	chart, err := h.service.Chart(ctx, shared.UserIDFromContext(r.Context()), kind, lapse)
	if err != nil {
		h.handleServerError(w, "load chart", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()
	if err := export.WriteChartCSV(buf, chart); err != nil {
		h.handleServerError(w, "write chart csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.Filename(chart)))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("stream csv", slog.Any("error", err))
	}
}

func (h *Handler) apiChart(w http.ResponseWriter, r *http.Request) {
	kind, lapse, err := parseChart(r)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	chart, err := h.service.Chart(ctx, shared.UserIDFromContext(r.Context()), kind, lapse)
	if err != nil {
		h.logger.Error("load chart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, chart)
}

func parseChart(r *http.Request) (charts.Kind, period.Lapse, error) {
	kind, err := charts.ParseKind(chi.URLParam(r, "chart"))
	if err != nil {
		return "", "", err
	}
	lapse, err := period.ParseLapse(r.URL.Query().Get("lapse"))
	if err != nil {
		return "", "", err
	}
	return kind, lapse, nil
}

func renderChart(chart charts.Chart) (ChartView, error) {
	cv := ChartView{Chart: chart, Empty: chart.Empty()}
	// A doughnut has nothing to draw without sales.
	if len(chart.Labels) == 0 || (cv.Empty && chart.Kind == charts.KindProducts) {
		return cv, nil
	}
	var err error
	switch chart.Kind {
	case charts.KindBalance:
		cv.SVG, err = svg.Bars(svg.DefaultWidth, svg.DefaultHeight, chart.Values, chart.Labels, svg.BarOpts{
			Title:       "Balance",
			Description: chart.Title,
			Colors:      chart.Colors,
		})
	case charts.KindProducts:
		cv.SVG, err = svg.Doughnut(svg.DefaultWidth, svg.DefaultHeight, chart.Values, chart.Labels, svg.DoughnutOpts{
			Title:       "Ventas por producto",
			Description: chart.Title,
			Colors:      chart.Colors,
		})
	case charts.KindProfits:
		cv.SVG, err = svg.Line(svg.DefaultWidth, svg.DefaultHeight, chart.Values, chart.Labels, svg.LineOpts{
			Title:       "Ganancias",
			Description: chart.Title,
			ShowDots:    true,
		})
	default:
		cv.SVG, err = svg.Line(svg.DefaultWidth, svg.DefaultHeight, chart.Values, chart.Labels, svg.LineOpts{
			Title:       "Ventas",
			Description: chart.Title,
			ShowDots:    true,
		})
	}
	return cv, err
}

func hasOption(options []option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn(op, slog.Any("error", err))
	} else {
		h.logger.Error(op, slog.Any("error", err))
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
