// Package web exposes the price variation analysis over HTTP as a small JSON
// API. It contains no business logic; every request is delegated to the
// ApplicationService.
package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"pricewatch/internal/app"
	"pricewatch/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc app.ApplicationService
	log *logrus.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string, log *logrus.Logger) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)
	r.Get("/api/price-variation", h.priceVariation)
	r.Get("/api/price-variation/options", h.filterOptions)
	r.Post("/api/price-variation/refresh", h.refreshSnapshot)

	return r
}

// health handles GET /api/health: liveness plus the current snapshot's age
// and statistics. An unreachable extract degrades the diagnostics, never the
// liveness answer.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}

	status, err := h.svc.GetSnapshotStatus(r.Context())
	if err != nil {
		h.log.WithError(err).Warn("snapshot status unavailable")
		resp["snapshot"] = nil
	} else {
		resp["snapshot"] = map[string]any{
			"loaded_at": status.LoadedAt,
			"age":       time.Since(status.LoadedAt).String(),
			"stats":     status.Stats,
		}
	}
	writeJSON(w, resp)
}

// priceVariation handles GET /api/price-variation. All filters arrive as
// query parameters; list-valued filters are comma-separated.
func (h *Handler) priceVariation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.AnalysisRequest{
		DateStart:      q.Get("date_start"),
		DateEnd:        q.Get("date_end"),
		Buyer:          q.Get("buyer"),
		Buyers:         splitAndTrim(q.Get("buyers")),
		ProductType:    q.Get("product_type"),
		Suppliers:      splitAndTrim(q.Get("suppliers")),
		SearchText:     q.Get("search"),
		Classification: strings.ToUpper(strings.TrimSpace(q.Get("classification"))),
	}

	result, err := h.svc.AnalyzePriceVariation(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Analysis)
}

// filterOptions handles GET /api/price-variation/options.
func (h *Handler) filterOptions(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetFilterCatalog(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Catalog)
}

// refreshSnapshot handles POST /api/price-variation/refresh.
func (h *Handler) refreshSnapshot(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RefreshSnapshot(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"loaded_at": result.LoadedAt,
		"stats":     result.Stats,
	})
}

// writeServiceError maps service-layer failures onto HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidRequest):
		writeError(w, r, err.Error(), "INVALID_REQUEST", http.StatusBadRequest)
	case errors.Is(err, core.ErrMalformedExtract):
		h.log.WithError(err).Error("malformed invoice extract")
		writeError(w, r, "invoice extract is malformed", "MALFORMED_EXTRACT", http.StatusInternalServerError)
	case errors.Is(err, core.ErrExtractUnavailable):
		h.log.WithError(err).Error("invoice extract unavailable")
		writeError(w, r, "invoice extract unavailable", "EXTRACT_UNAVAILABLE", http.StatusServiceUnavailable)
	default:
		h.log.WithError(err).Error("unhandled service error")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
