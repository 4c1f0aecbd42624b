package variance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/stores"
)

// Handler handles variance HTTP requests
type Handler struct {
	analyzer *Analyzer
	log      zerolog.Logger
}

// NewHandler creates a new variance handler
func NewHandler(analyzer *Analyzer, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		log:      log.With().Str("handler", "variance").Logger(),
	}
}

// Routes mounts the variance routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/headcount", h.HandleHeadcount)
	r.Get("/{kind}", h.HandleReport)
	r.Get("/{kind}/monthly", h.HandleMonthly)
}

// HandleReport handles GET /{kind} - full variance report
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	kind, ok := parsePlanKind(chi.URLParam(r, "kind"))
	if !ok {
		http.Error(w, "Unknown plan kind", http.StatusBadRequest)
		return
	}

	orgID, fiscalYear, ok := parseOrgAndYear(w, r)
	if !ok {
		return
	}

	window, err := parseWindow(r, fiscalYear)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.analyzer.Analyze(orgID, fiscalYear, kind, window)
	if errors.Is(err, stores.ErrPlanNotFound) {
		http.Error(w, "No active plan for the requested fiscal year", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Msg("Failed to build variance report")
		http.Error(w, "Failed to build variance report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, report)
}

// HandleMonthly handles GET /{kind}/monthly - fiscal year breakdown
func (h *Handler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	kind, ok := parsePlanKind(chi.URLParam(r, "kind"))
	if !ok {
		http.Error(w, "Unknown plan kind", http.StatusBadRequest)
		return
	}

	orgID, fiscalYear, ok := parseOrgAndYear(w, r)
	if !ok {
		return
	}

	rows, err := h.analyzer.MonthlyBreakdown(orgID, fiscalYear, kind)
	if errors.Is(err, stores.ErrPlanNotFound) {
		http.Error(w, "No active plan for the requested fiscal year", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Msg("Failed to build monthly breakdown")
		http.Error(w, "Failed to build monthly breakdown", http.StatusInternalServerError)
		return
	}

	writeJSON(w, rows)
}

// HandleHeadcount handles GET /headcount - headcount variance report
func (h *Handler) HandleHeadcount(w http.ResponseWriter, r *http.Request) {
	orgID, fiscalYear, ok := parseOrgAndYear(w, r)
	if !ok {
		return
	}

	window, err := parseWindow(r, fiscalYear)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.analyzer.HeadcountVariance(orgID, fiscalYear, window)
	if errors.Is(err, stores.ErrPlanNotFound) {
		http.Error(w, "No active headcount plan for the requested fiscal year", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Msg("Failed to build headcount variance")
		http.Error(w, "Failed to build headcount variance", http.StatusInternalServerError)
		return
	}

	writeJSON(w, report)
}

func parsePlanKind(s string) (stores.PlanKind, bool) {
	switch stores.PlanKind(s) {
	case stores.PlanKindBudget, stores.PlanKindRevenue:
		return stores.PlanKind(s), true
	}
	return "", false
}

func parseOrgAndYear(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return "", 0, false
	}

	fiscalYear := time.Now().Year()
	if y := r.URL.Query().Get("fiscal_year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil || parsed < 1900 || parsed > 2200 {
			http.Error(w, "Invalid fiscal_year", http.StatusBadRequest)
			return "", 0, false
		}
		fiscalYear = parsed
	}
	return orgID, fiscalYear, true
}

func parseWindow(r *http.Request, fiscalYear int) (periods.Range, error) {
	pt := periods.PeriodType(r.URL.Query().Get("period"))
	if pt == "" {
		pt = periods.PeriodYearly
	}

	var customStart, customEnd *time.Time
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return periods.Range{}, errors.New("invalid start_date, use YYYY-MM-DD")
		}
		customStart = &t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return periods.Range{}, errors.New("invalid end_date, use YYYY-MM-DD")
		}
		customEnd = &t
	}

	return periods.DateRangeFor(time.Now().UTC(), fiscalYear, pt, customStart, customEnd)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
