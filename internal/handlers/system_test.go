package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfagnish/mergington-activities/internal/catalog"
	"github.com/alfagnish/mergington-activities/internal/config"
	"github.com/alfagnish/mergington-activities/internal/events"
)

func newSystemRouter(cfg *config.Config) http.Handler {
	cat := catalog.New(catalog.DefaultSeed())
	hub := events.NewHub(cfg.WSBuffer, nil)
	r := chi.NewRouter()
	r.Route("/api/system", NewSystemHandler(cfg, cat, hub).Routes)
	return r
}

func TestHealth(t *testing.T) {
	h := newSystemRouter(&config.Config{WSBuffer: 4})

	rr, body := do(t, h, http.MethodGet, "/api/system/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(len(catalog.DefaultSeed())), body["activities"])
	assert.Equal(t, 0.0, body["subscribers"])
}

func TestGetConfigReportsEffectiveSettings(t *testing.T) {
	h := newSystemRouter(&config.Config{
		ListenAddr:      ":8000",
		GRPCAddr:        ":9000",
		StaticDir:       "./static",
		LogLevel:        "debug",
		LogFormat:       "console",
		AllowedOrigins:  []string{"http://localhost:5173"},
		ShutdownTimeout: 5 * time.Second,
		WSBuffer:        32,
	})

	rr, body := do(t, h, http.MethodGet, "/api/system/config")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ":8000", body["listen_addr"])
	assert.Equal(t, ":9000", body["grpc_addr"])
	assert.Equal(t, "./static", body["static_dir"])
	assert.Equal(t, "debug", body["log_level"])
	assert.Equal(t, "console", body["log_format"])
	assert.Equal(t, []interface{}{"http://localhost:5173"}, body["allowed_origins"])
	assert.Equal(t, "5s", body["shutdown_timeout"])
	assert.Equal(t, 32.0, body["ws_buffer"])
}
