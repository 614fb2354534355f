package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/alfagnish/mergington-activities/internal/catalog"
)

// writeJSON serialises v as JSON and writes it to the response with the
// given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a standard JSON error response of the form
// {"detail": "message"}.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeCatalogError maps a catalog error to its HTTP status.
func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrAlreadySignedUp), errors.Is(err, catalog.ErrNotSignedUp):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// activityNameParam returns the decoded {activityName} path segment. chi
// matches against RawPath when the request carries one, in which case the
// segment is still percent-encoded.
func activityNameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "activityName")
	if r.URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}
