package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "nexus-analytics/internal/errors"
	"nexus-analytics/internal/models"
	"nexus-analytics/internal/observability"
	"nexus-analytics/internal/services"
)

const cacheControl = "public, max-age=60"

type APIHandlers struct {
	analytics         *services.Analytics
	generatorDefaults models.GeneratorParams
	maxUploadBytes    int64
	logger            *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, generatorDefaults models.GeneratorParams, maxUploadBytes int64, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics:         analytics,
		generatorDefaults: generatorDefaults,
		maxUploadBytes:    maxUploadBytes,
		logger:            logger,
	}
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.KPIs(rng), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleRevenueTrend(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	granularity := models.Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = models.GranularityMonth
	}
	if !granularity.Valid() {
		h.writeError(w, r, apperrors.BadRequest("granularity must be day, month or year"))
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.RevenueTrend(granularity, rng), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.Heatmap(rng), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.Categories(rng), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandlePareto(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	key := models.GroupKey(r.URL.Query().Get("by"))
	if key == "" {
		key = models.GroupByProduct
	}
	if !key.Valid() {
		h.writeError(w, r, apperrors.BadRequest("by must be product or category"))
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.Pareto(key, rng), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.RFM(rng), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleRFMExport(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result := h.analytics.RFM(rng)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="rfm_segments.csv"`)
	if err := services.WriteRFMCSV(w, result); err != nil {
		h.logger.Error("write rfm export", "error", err)
	}
}

func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		h.writeError(w, r, apperrors.PayloadTooLarge("upload exceeds the configured size limit"))
		return
	}

	kept, dropped, err := h.analytics.LoadCSVBytes(data)
	if err != nil {
		if schemaErr, ok := err.(*services.SchemaError); ok {
			h.writeError(w, r, apperrors.Schema(schemaErr.Error()))
			return
		}
		h.writeError(w, r, apperrors.BadRequest(err.Error()))
		return
	}

	apperrors.WriteSuccess(w, map[string]any{
		"records":      kept,
		"dropped_rows": dropped,
	})
}

// generateRequest overrides any subset of the configured generator
// defaults.
type generateRequest struct {
	Start             string   `json:"start"`
	End               string   `json:"end"`
	Seed              *int64   `json:"seed"`
	BaseDailyOrders   *int     `json:"base_daily_orders"`
	SeasonalAmplitude *float64 `json:"seasonal_amplitude"`
	WeekendBoost      *float64 `json:"weekend_boost"`
	Categories        []string `json:"categories"`
	Customers         *int     `json:"customers"`
}

func (h *APIHandlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	params := h.generatorDefaults

	if r.Body != nil && r.ContentLength != 0 {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, r, apperrors.BadRequest("invalid generator parameters"))
			return
		}
		if err := applyOverrides(&params, req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	count := h.analytics.GenerateDemo(params)
	apperrors.WriteSuccess(w, map[string]any{
		"records": count,
		"seed":    params.Seed,
	})
}

func applyOverrides(params *models.GeneratorParams, req generateRequest) error {
	if req.Start != "" {
		t, err := time.Parse("2006-01-02", req.Start)
		if err != nil {
			return apperrors.BadRequest("start must be YYYY-MM-DD")
		}
		params.Start = t
	}
	if req.End != "" {
		t, err := time.Parse("2006-01-02", req.End)
		if err != nil {
			return apperrors.BadRequest("end must be YYYY-MM-DD")
		}
		params.End = t
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	}
	if req.BaseDailyOrders != nil {
		params.BaseDailyOrders = *req.BaseDailyOrders
	}
	if req.SeasonalAmplitude != nil {
		params.SeasonalAmplitude = *req.SeasonalAmplitude
	}
	if req.WeekendBoost != nil {
		params.WeekendBoost = *req.WeekendBoost
	}
	if len(req.Categories) > 0 {
		params.Categories = req.Categories
	}
	if req.Customers != nil {
		params.Customers = *req.Customers
	}
	return nil
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, h.analytics.Stats())
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

// parseRange reads the optional from/to query filters (YYYY-MM-DD,
// inclusive).
func parseRange(r *http.Request) (models.DateRange, error) {
	var rng models.DateRange
	q := r.URL.Query()

	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return rng, apperrors.BadRequest("from must be YYYY-MM-DD")
		}
		rng.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return rng, apperrors.BadRequest("to must be YYYY-MM-DD")
		}
		rng.To = t
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return rng, apperrors.BadRequest("to precedes from")
	}
	return rng, nil
}
