package uniteconomics

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/modules/periods"
)

// Handler handles unit economics HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new unit economics handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "uniteconomics").Logger(),
	}
}

// Routes mounts the unit economics routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleOverview)
	r.Get("/cohorts", h.HandleCohorts)
}

// HandleOverview handles GET / - the full metric set
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return
	}

	overview, err := h.service.Overview(orgID, time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Msg("Failed to compute unit economics")
		http.Error(w, "Failed to compute unit economics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(overview)
}

// HandleCohorts handles GET /cohorts - the retention matrix
func (h *Handler) HandleCohorts(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return
	}

	cohorts := intParam(r, "cohorts", 12)
	retention := intParam(r, "retention", 12)

	g := periods.Monthly
	switch periods.Granularity(r.URL.Query().Get("granularity")) {
	case periods.Weekly:
		g = periods.Weekly
	case periods.Quarterly:
		g = periods.Quarterly
	}

	analysis, err := h.service.AnalyzeCohorts(orgID, g, cohorts, retention, time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Msg("Failed to analyze cohorts")
		http.Error(w, "Failed to analyze cohorts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis)
}

func intParam(r *http.Request, name string, def int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			return v
		}
	}
	return def
}
