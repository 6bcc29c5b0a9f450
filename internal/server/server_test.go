package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/victoralfred/retail_analytics/internal/analytics/algorithms"
	"github.com/victoralfred/retail_analytics/internal/client"
	"github.com/victoralfred/retail_analytics/internal/config"
	"github.com/victoralfred/retail_analytics/internal/correlator"
	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
	"github.com/victoralfred/retail_analytics/internal/handlers"
	"github.com/victoralfred/retail_analytics/internal/metrics"
	"github.com/victoralfred/retail_analytics/internal/worker"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:        8080,
		Environment: "test",
		Version:     "1.0.0",
		StartTime:   time.Now(),
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		RateLimit: config.RateLimitConfig{Global: 600, PerIP: 600, Burst: 50},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Engine:    config.EngineConfig{Transport: config.TransportPipe, RequestTimeout: 5 * time.Second},
	}
}

// setupTestServer wires the full stack over an in-process worker
func setupTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := metrics.New()
	dispatcher := worker.NewDispatcher(algorithms.NewDefault())
	engine := correlator.New(
		worker.PipeFactory(dispatcher, 0, worker.WithMetrics(m)),
		correlator.WithMetrics(m),
		correlator.WithTimeout(5*time.Second),
	)
	c := client.New(engine)
	t.Cleanup(func() { _ = c.Close() })

	server := New(testConfig(), &Services{
		AnalyticsHandler: handlers.NewAnalyticsHandler(c, dispatcher, zap.NewNop(), m),
		DocsHandler:      handlers.NewDocsHandler("1.0.0"),
		Metrics:          m,
		Pending:          engine.Pending,
	}, zap.NewNop())
	server.Setup()
	return server
}

func serve(s *HTTPServer, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestNewServer(t *testing.T) {
	cfg := testConfig()
	logger := zap.NewNop()
	services := &Services{}

	server := New(cfg, services, logger)

	assert.NotNil(t, server)
	assert.Equal(t, cfg, server.config)
	assert.Equal(t, services, server.services)
	assert.Equal(t, logger, server.logger)
}

func TestServer_HealthCheck(t *testing.T) {
	server := setupTestServer(t)

	w := serve(server, "GET", "/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "1.0.0", response["version"])
	assert.Equal(t, "pipe", response["transport"])
	assert.Equal(t, 0.0, response["pending_requests"])
	assert.NotNil(t, response["uptime"])
}

func TestServer_APIInfo(t *testing.T) {
	server := setupTestServer(t)

	w := serve(server, "GET", "/v1/info", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "test", response["environment"])
	assert.Len(t, response["operations"], 18)
}

func TestServer_AnalyticsRoutes(t *testing.T) {
	server := setupTestServer(t)

	t.Run("Computes an operation through the worker", func(t *testing.T) {
		w := serve(server, "POST", "/v1/analytics/calculate-kpis?cache=auto", `{"billing":[
			{"shopping":"Park","tenant":"A","billed_amount":100,"paid_amount":60},
			{"shopping":"Park","tenant":"B","billed_amount":100,"paid_amount":100}
		]}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var response struct {
			Data analytics.KPIResult `json:"data"`
			Meta handlers.ResultMeta `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 80.0, response.Data.CollectionRate)
		assert.False(t, response.Meta.Fallback)
		assert.NotEmpty(t, response.Meta.RequestID)
	})

	t.Run("Second identical request is served from cache", func(t *testing.T) {
		body := `{"lines":[{"category":"Energia","planned":100,"actual":104}]}`
		require.Equal(t, http.StatusOK, serve(server, "POST", "/v1/analytics/process-budget?cache=auto", body).Code)

		w := serve(server, "POST", "/v1/analytics/process-budget?cache=auto", body)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Meta handlers.ResultMeta `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Meta.FromCache)
	})

	t.Run("Dashboard", func(t *testing.T) {
		w := serve(server, "POST", "/v1/analytics/dashboard", `{"billing":[
			{"shopping":"Park","tenant":"A","period":"2024-01","billed_amount":100,"paid_amount":60}
		]}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"kpis"`)
		assert.Contains(t, w.Body.String(), `"cashflow"`)
		assert.Contains(t, w.Body.String(), `"insights"`)
	})

	t.Run("Insights", func(t *testing.T) {
		w := serve(server, "POST", "/v1/analytics/generate-insights", `{"delinquency":[
			{"tenant":"A","default_amount":90000,"status":"debt_confession"},
			{"tenant":"B","default_amount":10000,"status":"agreement"}
		]}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "Dominant debtor: A")
		assert.Contains(t, w.Body.String(), `"priority_recommendations"`)
	})

	t.Run("Unknown operation", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(server, "POST", "/v1/analytics/unknown-op", `{}`).Code)
	})

	t.Run("Lists operations", func(t *testing.T) {
		w := serve(server, "GET", "/v1/analytics/operations", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "SIMULATE_MONTE_CARLO")
	})
}

func TestServer_Metrics(t *testing.T) {
	server := setupTestServer(t)
	require.Equal(t, http.StatusOK, serve(server, "POST", "/v1/analytics/calculate-kpis", `{}`).Code)

	w := serve(server, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "analytics_requests_total")
	assert.Contains(t, w.Body.String(), "analytics_context_starts_total 1")
}

func TestServer_Docs(t *testing.T) {
	server := setupTestServer(t)

	w := serve(server, "GET", "/v1/docs/swagger.json", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/v1/analytics/generate-heatmap")
}

func TestServer_CORS(t *testing.T) {
	server := setupTestServer(t)

	req, _ := http.NewRequest("OPTIONS", "/v1/analytics/calculate-kpis", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST"))
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{PerIP: 1, Burst: 1}
	server := New(cfg, &Services{}, zap.NewNop())
	server.Setup()

	first := serve(server, "POST", "/v1/analytics/calculate-kpis", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, first.Code)

	second := serve(server, "POST", "/v1/analytics/calculate-kpis", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Health is not rate limited
	assert.Equal(t, http.StatusOK, serve(server, "GET", "/v1/health", "").Code)
}

func TestServer_RequestID(t *testing.T) {
	server := setupTestServer(t)
	w := serve(server, "GET", "/v1/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
