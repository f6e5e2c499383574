package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchprofit/internal/config"
	"batchprofit/internal/infrastructure"
	"batchprofit/internal/services"
	ws "batchprofit/internal/websocket"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        8080,
			ReadTimeout: 15 * time.Second,
		},
		Workbook: config.WorkbookConfig{
			Path:           "missing.xlsx",
			PurchasesSheet: "Purchases",
			SalesSheet:     "Sales",
			HeaderScanRows: 5,
		},
		Shares: config.SharesConfig{
			Default: config.ShareSplit{SZ: 50, GZ: 50},
		},
	}

	app := &Application{
		Config:        cfg,
		Logger:        slog.Default(),
		OTelProviders: &infrastructure.OTelProviders{},
	}

	hub := ws.NewHub(app.Logger)
	hub.Start()
	t.Cleanup(hub.Stop)
	app.Hub = hub

	app.ProfitService = services.NewProfitService(cfg, hub, nil, app.Logger)
	app.HealthService = services.NewHealthService(Version, cfg.Workbook.Path, app.ProfitService, app.Logger)

	app.setupRouter()
	app.createServer()
	return app
}

func TestRouter_HealthDegradedBeforeLoad(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestRouter_ProfitBatchesBeforeLoad(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profit/batches", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestRouter_UnknownAPIRoute(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCreateServer_UsesConfiguredAddr(t *testing.T) {
	app := newTestApplication(t)
	assert.Equal(t, ":8080", app.Server.Addr)
}
