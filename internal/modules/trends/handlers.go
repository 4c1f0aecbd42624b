package trends

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/modules/periods"
)

// Handler handles trend HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new trends handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "trends").Logger(),
	}
}

// Routes mounts the trend routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/correlate", h.HandleCorrelate)
	r.Get("/{metric}", h.HandleTrend)
	r.Get("/{metric}/compare", h.HandleCompare)
}

// HandleTrend handles GET /{metric} - annotated trend series
func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	metric, ok := parseMetric(chi.URLParam(r, "metric"))
	if !ok {
		http.Error(w, "Unknown metric", http.StatusBadRequest)
		return
	}

	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return
	}

	g := parseGranularity(r.URL.Query().Get("granularity"))
	window := parseTrendWindow(r)

	analysis, err := h.service.Analyze(orgID, metric, g, window)
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Str("metric", string(metric)).Msg("Failed to build trend")
		http.Error(w, "Failed to build trend", http.StatusInternalServerError)
		return
	}

	writeJSON(w, analysis)
}

// HandleCompare handles GET /{metric}/compare?periods=N
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	metric, ok := parseMetric(chi.URLParam(r, "metric"))
	if !ok {
		http.Error(w, "Unknown metric", http.StatusBadRequest)
		return
	}

	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return
	}

	n := 3
	if s := r.URL.Query().Get("periods"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 || parsed > MaxTrendMonths {
			http.Error(w, "Invalid periods", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	comparison, err := h.service.ComparePeriods(orgID, metric, parseGranularity(r.URL.Query().Get("granularity")), n, time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Msg("Failed to compare periods")
		http.Error(w, "Failed to compare periods", http.StatusInternalServerError)
		return
	}

	writeJSON(w, comparison)
}

// HandleCorrelate handles GET /correlate?metrics=a,b,c
func (h *Handler) HandleCorrelate(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return
	}

	names := strings.Split(r.URL.Query().Get("metrics"), ",")
	if len(names) < 2 {
		http.Error(w, "At least two metrics are required", http.StatusBadRequest)
		return
	}

	g := parseGranularity(r.URL.Query().Get("granularity"))
	window := parseTrendWindow(r)

	analyses := make([]*Analysis, 0, len(names))
	for _, name := range names {
		metric, ok := parseMetric(strings.TrimSpace(name))
		if !ok {
			http.Error(w, "Unknown metric: "+name, http.StatusBadRequest)
			return
		}
		analysis, err := h.service.Analyze(orgID, metric, g, window)
		if err != nil {
			h.log.Error().Err(err).Str("org", orgID).Str("metric", string(metric)).Msg("Failed to build trend")
			http.Error(w, "Failed to build trend", http.StatusInternalServerError)
			return
		}
		analyses = append(analyses, analysis)
	}

	writeJSON(w, Correlate(analyses))
}

func parseMetric(s string) (MetricType, bool) {
	switch MetricType(s) {
	case MetricExpense, MetricRevenue, MetricBurnRate, MetricHeadcount,
		MetricCashBalance, MetricNetIncome, MetricGrossMargin:
		return MetricType(s), true
	}
	return "", false
}

func parseGranularity(s string) periods.Granularity {
	switch periods.Granularity(s) {
	case periods.Daily, periods.Weekly, periods.Quarterly:
		return periods.Granularity(s)
	}
	return periods.Monthly
}

// parseTrendWindow resolves the window from months=N (default 12,
// capped) or explicit start/end dates
func parseTrendWindow(r *http.Request) periods.Range {
	now := time.Now().UTC()

	if s, e := r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"); s != "" && e != "" {
		start, errS := time.Parse("2006-01-02", s)
		end, errE := time.Parse("2006-01-02", e)
		if errS == nil && errE == nil && !start.After(end) {
			return periods.Range{Start: start, End: end}
		}
	}

	months := 12
	if s := r.URL.Query().Get("months"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed >= 1 {
			months = parsed
		}
	}
	if months > MaxTrendMonths {
		months = MaxTrendMonths
	}

	return periods.Range{Start: now.AddDate(0, -(months - 1), 0), End: now}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
