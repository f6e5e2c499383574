package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "batchprofit/internal/errors"
	"batchprofit/internal/services"
)

// ProfitHandler exposes the batch profit API.
type ProfitHandler struct {
	service      ProfitReader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewProfitHandler creates a profit handler.
func NewProfitHandler(service ProfitReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ProfitHandler {
	return &ProfitHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "profit_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the profit routes.
func (h *ProfitHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/batches", h.GetBatches)
	r.Get("/batches/{ref}", h.GetBatch)
	r.Get("/summary", h.GetSummary)
	r.Get("/categories", h.GetCategories)
	r.Get("/quality", h.GetQuality)
	r.Get("/export/csv", h.ExportCSV)
	r.Post("/reload", h.Reload)

	return r
}

// GetBatches handles GET /api/profit/batches. Supported query parameters:
// category, status, unmatched (true/false) and q (substring search over
// batch reference, item code and item name).
func (h *ProfitHandler) GetBatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.BatchFilter{
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Search:   q.Get("q"),
	}
	switch q.Get("unmatched") {
	case "", "false", "0":
	case "true", "1":
		filter.UnmatchedOnly = true
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("unmatched", "must be true or false"))
		return
	}

	batches, err := h.service.Batches(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   batches,
		"count":  len(batches),
	})
}

// GetBatch handles GET /api/profit/batches/{ref}.
func (h *ProfitHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	if ref == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("ref", "Batch reference is required"))
		return
	}

	batch, err := h.service.Batch(r.Context(), ref)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   batch,
	})
}

// GetSummary handles GET /api/profit/summary.
func (h *ProfitHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetCategories handles GET /api/profit/categories.
func (h *ProfitHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.CategorySummaries(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   categories,
		"count":  len(categories),
	})
}

// GetQuality handles GET /api/profit/quality.
func (h *ProfitHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	quality, err := h.service.Quality(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   quality,
	})
}

// ExportCSV handles GET /api/profit/export/csv and serves the report as a
// file download. The report is rendered before any header goes out, so a
// failed export still gets a problem document instead of a truncated file.
func (h *ProfitHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("batch_profit_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export write failed",
			slog.String("error", err.Error()))
	}
}

// Reload handles POST /api/profit/reload and re-runs the workbook pipeline.
func (h *ProfitHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "reload requested",
		slog.String("remote_addr", r.RemoteAddr))

	if err := h.service.Reload(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// handleServiceError maps service sentinels onto API errors before handing
// off to the shared RFC 7807 error handler.
func (h *ProfitHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotLoaded):
		h.errorHandler.HandleError(w, r, apierrors.ErrDataNotLoaded)
	case errors.Is(err, services.ErrBatchNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ErrBatchNotFound)
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
