package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alfagnish/mergington-activities/internal/catalog"
	"github.com/alfagnish/mergington-activities/internal/metrics"
)

// ActivitiesHandler exposes the activity catalog: listing, lookup, signup and
// unregistration.
type ActivitiesHandler struct {
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewActivitiesHandler creates a new ActivitiesHandler.
func NewActivitiesHandler(c *catalog.Catalog, m *metrics.Metrics, log *zap.Logger) *ActivitiesHandler {
	return &ActivitiesHandler{catalog: c, metrics: m, log: log}
}

// Routes registers all activity routes on the given chi router.
func (h *ActivitiesHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{activityName}", h.Get)
	r.Post("/{activityName}/signup", h.Signup)
	r.Delete("/{activityName}/unregister", h.Unregister)
}

// List returns every activity keyed by name.
func (h *ActivitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

// Get returns a single activity.
func (h *ActivitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, err := activityNameParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity name encoding")
		return
	}

	activity, err := h.catalog.Get(name)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

// Signup adds the `email` query parameter to the activity's roster.
func (h *ActivitiesHandler) Signup(w http.ResponseWriter, r *http.Request) {
	name, email, ok := h.rosterParams(w, r)
	if !ok {
		h.metrics.Signups.WithLabelValues("http", metrics.ResultInvalid).Inc()
		return
	}

	msg, err := h.catalog.Signup(name, email)
	h.metrics.Signups.WithLabelValues("http", metrics.Result(err)).Inc()
	if err != nil {
		h.log.Debug("signup rejected",
			zap.String("activity", name),
			zap.String("email", email),
			zap.Error(err),
		)
		writeCatalogError(w, err)
		return
	}

	h.log.Info("participant signed up", zap.String("activity", name), zap.String("email", email))
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Unregister removes the `email` query parameter from the activity's roster.
func (h *ActivitiesHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	name, email, ok := h.rosterParams(w, r)
	if !ok {
		h.metrics.Unregistrations.WithLabelValues("http", metrics.ResultInvalid).Inc()
		return
	}

	msg, err := h.catalog.Unregister(name, email)
	h.metrics.Unregistrations.WithLabelValues("http", metrics.Result(err)).Inc()
	if err != nil {
		h.log.Debug("unregister rejected",
			zap.String("activity", name),
			zap.String("email", email),
			zap.Error(err),
		)
		writeCatalogError(w, err)
		return
	}

	h.log.Info("participant unregistered", zap.String("activity", name), zap.String("email", email))
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// rosterParams extracts the activity name and email. The email must be
// present but may be any string, including empty.
func (h *ActivitiesHandler) rosterParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	name, err := activityNameParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity name encoding")
		return "", "", false
	}

	query := r.URL.Query()
	if !query.Has("email") {
		writeError(w, http.StatusUnprocessableEntity, "email query parameter is required")
		return "", "", false
	}
	return name, query.Get("email"), true
}
