package health

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const defaultHistoryLimit = 30

// Handler handles health score HTTP requests
type Handler struct {
	composer *Composer
	log      zerolog.Logger
}

// NewHandler creates a new health score handler
func NewHandler(composer *Composer, log zerolog.Logger) *Handler {
	return &Handler{
		composer: composer,
		log:      log.With().Str("handler", "health").Logger(),
	}
}

// Routes mounts the health score routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleLatest)
	r.Post("/refresh", h.HandleRefresh)
	r.Get("/history", h.HandleHistory)
	r.Post("/{snapshotID}/archive", h.HandleArchive)
}

// HandleLatest handles GET / - the most recent snapshot, computed fresh
// when no history exists yet
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return
	}

	snapshot, err := h.composer.Latest(orgID, time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Msg("Failed to load health score")
		http.Error(w, "Failed to load health score", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// HandleRefresh handles POST /refresh - recompute and persist a new
// snapshot
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return
	}

	snapshot, err := h.composer.Compose(orgID, time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Msg("Failed to compute health score")
		http.Error(w, "Failed to compute health score", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// HandleHistory handles GET /history - snapshots newest first
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			limit = v
		}
	}

	history, err := h.composer.History(orgID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("org", orgID).Msg("Failed to load snapshot history")
		http.Error(w, "Failed to load snapshot history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"org_id":    orgID,
		"snapshots": history,
	})
}

// HandleArchive handles POST /{snapshotID}/archive
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		http.Error(w, "org is required", http.StatusBadRequest)
		return
	}
	snapshotID := chi.URLParam(r, "snapshotID")

	if err := h.composer.Archive(orgID, snapshotID); err != nil {
		h.log.Error().Err(err).Str("snapshot", snapshotID).Msg("Failed to archive snapshot")
		http.Error(w, "Failed to archive snapshot", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
