package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/victoralfred/retail_analytics/internal/client"
	"github.com/victoralfred/retail_analytics/internal/correlator"
	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
	"github.com/victoralfred/retail_analytics/internal/metrics"
	"github.com/victoralfred/retail_analytics/internal/worker"
)

// CacheKeyHeader lets the caller name the cache slot of a result
const CacheKeyHeader = "X-Cache-Key"

// Engine runs encoded operations in the worker context
type Engine interface {
	Run(ctx context.Context, kind analytics.OperationKind, payload json.RawMessage, opts ...client.CallOption) (*correlator.Result, error)
}

// LocalComputer computes an operation synchronously in the calling goroutine
type LocalComputer interface {
	Dispatch(ctx context.Context, kind analytics.OperationKind, payload json.RawMessage) (json.RawMessage, error)
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResultMeta describes how a result was produced
type ResultMeta struct {
	Operation analytics.OperationKind `json:"operation"`
	RequestID string                  `json:"request_id,omitempty"`
	FromCache bool                    `json:"from_cache"`
	Fallback  bool                    `json:"fallback"`
}

// AnalyticsHandler exposes the engine over HTTP
type AnalyticsHandler struct {
	engine   Engine
	fallback LocalComputer
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewAnalyticsHandler creates the handler. A nil fallback disables the
// synchronous path.
func NewAnalyticsHandler(engine Engine, fallback LocalComputer, logger *zap.Logger, m *metrics.Metrics) *AnalyticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{
		engine:   engine,
		fallback: fallback,
		logger:   logger,
		metrics:  m,
	}
}

// ParseOperation accepts CALCULATE_KPIS as well as calculate-kpis
func ParseOperation(s string) (analytics.OperationKind, bool) {
	kind := analytics.OperationKind(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	return kind, kind.Valid()
}

// ListOperations returns every supported operation
func (h *AnalyticsHandler) ListOperations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    analytics.AllOperations(),
	})
}

// RunOperation runs the operation named in the path over the request body
func (h *AnalyticsHandler) RunOperation(c *gin.Context) {
	kind, ok := ParseOperation(c.Param("operation"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": ErrorResponse{
				Code:    analytics.CodeUnknownOperation,
				Message: "Unknown analytics operation",
				Details: c.Param("operation"),
			},
		})
		return
	}

	body, err := c.GetRawData()
	if err != nil || (len(body) > 0 && !json.Valid(body)) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": ErrorResponse{
				Code:    "INVALID_REQUEST_BODY",
				Message: "Request body must be a JSON payload",
			},
		})
		return
	}
	if len(body) == 0 {
		body = json.RawMessage(`{}`)
	}

	var opts []client.CallOption
	if key := c.GetHeader(CacheKeyHeader); key != "" {
		opts = append(opts, client.WithCacheKey(key))
	} else if c.Query("cache") == "auto" {
		opts = append(opts, client.WithDerivedCacheKey())
	}

	data, meta, err := h.run(c.Request.Context(), kind, body, opts...)
	if err != nil {
		status, resp := errorStatus(err)
		c.JSON(status, gin.H{"success": false, "error": resp})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"meta":    meta,
	})
}

// DashboardRequest carries the records behind the portfolio dashboard
type DashboardRequest struct {
	Billing     []analytics.BillingRecord     `json:"billing"`
	Delinquency []analytics.DelinquencyRecord `json:"delinquency"`
	Movements   []analytics.MovementRecord    `json:"movements"`
}

// Dashboard computes KPIs, risk, cash flow, billing analytics and insights concurrently.
// Sections that fail are reported individually next to the ones that succeeded.
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	var req DashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": ErrorResponse{
				Code:    "INVALID_REQUEST_BODY",
				Message: "Invalid request body",
				Details: err.Error(),
			},
		})
		return
	}

	sections := map[string]struct {
		kind    analytics.OperationKind
		payload any
	}{
		"kpis":     {analytics.OpCalculateKPIs, analytics.KPIPayload{Billing: req.Billing, Delinquency: req.Delinquency, Movements: req.Movements}},
		"risk":     {analytics.OpCalculateRiskMetrics, analytics.RiskPayload{Billing: req.Billing, Delinquency: req.Delinquency}},
		"cashflow": {analytics.OpProcessCashFlow, analytics.CashFlowPayload{Movements: req.Movements}},
		"billing":  {analytics.OpProcessBillingAnalytics, analytics.BillingAnalyticsPayload{Billing: req.Billing}},
		"insights": {analytics.OpGenerateInsights, analytics.InsightsPayload{Movements: req.Movements, Delinquency: req.Delinquency}},
	}

	var (
		mu       sync.Mutex
		data     = make(map[string]json.RawMessage, len(sections))
		meta     = make(map[string]ResultMeta, len(sections))
		failures = make(map[string]ErrorResponse)
	)

	g, ctx := errgroup.WithContext(c.Request.Context())
	for name, s := range sections {
		g.Go(func() error {
			payload, err := json.Marshal(s.payload)
			if err != nil {
				return err
			}
			out, m, err := h.run(ctx, s.kind, payload, client.WithDerivedCacheKey())

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				_, failures[name] = errorStatus(err)
				return nil
			}
			data[name] = out
			meta[name] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": ErrorResponse{
				Code:    "DASHBOARD_FAILED",
				Message: "Failed to build dashboard",
				Details: err.Error(),
			},
		})
		return
	}

	status := http.StatusOK
	if len(data) == 0 {
		status = http.StatusBadGateway
	}
	resp := gin.H{
		"success": len(data) > 0,
		"data":    data,
		"meta":    meta,
	}
	if len(failures) > 0 {
		resp["errors"] = failures
	}
	c.JSON(status, resp)
}

// run sends the request to the engine and falls back to the local path when
// the worker context cannot answer.
func (h *AnalyticsHandler) run(ctx context.Context, kind analytics.OperationKind, payload json.RawMessage, opts ...client.CallOption) (json.RawMessage, ResultMeta, error) {
	meta := ResultMeta{Operation: kind}

	res, err := h.engine.Run(ctx, kind, payload, opts...)
	if err == nil {
		meta.RequestID = res.RequestID
		meta.FromCache = res.FromCache
		return res.Data, meta, nil
	}
	if h.fallback == nil || !shouldFallback(err) {
		return nil, meta, err
	}

	h.logger.Warn("engine rejected request, computing synchronously",
		zap.String("operation", kind.String()),
		zap.Error(err),
	)
	h.metrics.Fallback(kind.String())

	data, ferr := h.fallback.Dispatch(ctx, kind, payload)
	if ferr != nil {
		return nil, meta, ferr
	}
	meta.Fallback = true
	return data, meta, nil
}

// shouldFallback reports whether err left the request unanswered rather
// than answered with a deterministic failure
func shouldFallback(err error) bool {
	return errors.Is(err, analytics.ErrTimeout) ||
		errors.Is(err, analytics.ErrContextFailure) ||
		errors.Is(err, analytics.ErrClosed)
}

func errorStatus(err error) (int, ErrorResponse) {
	var ee *analytics.EngineError
	if errors.As(err, &ee) {
		resp := ErrorResponse{Code: string(ee.Kind), Message: ee.Message}
		if ee.Code != "" {
			resp.Code = ee.Code
		}
		switch ee.Kind {
		case analytics.KindUnknownOperation:
			return http.StatusNotFound, resp
		case analytics.KindTimeout:
			return http.StatusGatewayTimeout, resp
		case analytics.KindContextFailure, analytics.KindClosed, analytics.KindCanceled:
			return http.StatusServiceUnavailable, resp
		}
		return codeStatus(ee.Code), resp
	}

	var de *worker.DispatchError
	if errors.As(err, &de) {
		return codeStatus(de.Code), ErrorResponse{Code: de.Code, Message: de.Error()}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: err.Error(),
	}
}

func codeStatus(code string) int {
	switch code {
	case analytics.CodeInvalidPayload:
		return http.StatusBadRequest
	case analytics.CodeUnknownOperation:
		return http.StatusNotFound
	case analytics.CodeEncodingFailed:
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}
