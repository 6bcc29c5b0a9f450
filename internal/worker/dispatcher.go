// Package worker runs analytics computations in an isolated context. Requests
// are consumed one at a time, routed to the algorithm library, and answered
// with a RESULT or ERROR response. A failing computation never takes the
// worker down.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/victoralfred/retail_analytics/internal/analytics/algorithms"
	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// Handler computes the result of one operation from its encoded payload
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// DispatchError is a per-request failure carrying a response code
type DispatchError struct {
	Code string
	Err  error
}

func (e *DispatchError) Error() string {
	return e.Err.Error()
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Dispatcher routes an operation kind to its handler
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[analytics.OperationKind]Handler
}

// NewDispatcher wires every operation kind to lib
func NewDispatcher(lib *algorithms.Library) *Dispatcher {
	if lib == nil {
		lib = algorithms.NewDefault()
	}
	d := &Dispatcher{handlers: make(map[analytics.OperationKind]Handler)}

	d.handlers[analytics.OpCalculateKPIs] = handle(lib.CalculateKPIs)
	d.handlers[analytics.OpProcessFinancialData] = handle(lib.ProcessFinancialData)
	d.handlers[analytics.OpCalculateRiskMetrics] = handle(lib.CalculateRiskMetrics)
	d.handlers[analytics.OpGeneratePredictions] = handle(lib.GeneratePredictions)
	d.handlers[analytics.OpSimulateMonteCarlo] = handle(lib.SimulateMonteCarlo)
	d.handlers[analytics.OpProcessDrilldown] = handle(lib.ProcessDrilldown)
	d.handlers[analytics.OpGenerateHeatmap] = handle(lib.GenerateHeatmap)
	d.handlers[analytics.OpCalculateNetworkMetrics] = handle(lib.CalculateNetworkMetrics)
	d.handlers[analytics.OpOptimizeChartData] = handle(lib.OptimizeChartData)
	d.handlers[analytics.OpProcessBillingAnalytics] = handle(lib.ProcessBillingAnalytics)
	d.handlers[analytics.OpProcessCashFlow] = handle(lib.ProcessCashFlow)
	d.handlers[analytics.OpProcessVendorAnalytics] = handle(lib.ProcessVendorAnalytics)
	d.handlers[analytics.OpProcessBudget] = handle(lib.ProcessBudget)
	d.handlers[analytics.OpFormatMetrics] = handle(lib.FormatMetrics)
	d.handlers[analytics.OpAnalyzeDelinquency] = handle(lib.AnalyzeDelinquency)
	d.handlers[analytics.OpAnalyzeTrends] = handle(lib.AnalyzeTrends)
	d.handlers[analytics.OpClassifyKPIs] = handle(lib.ClassifyKPIs)
	d.handlers[analytics.OpGenerateInsights] = handle(lib.GenerateInsights)

	return d
}

// handle adapts a pure algorithm to a Handler: decode, then compute
func handle[P, R any](fn func(P) R) Handler {
	return func(_ context.Context, raw json.RawMessage) (any, error) {
		var p P
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, &DispatchError{
					Code: analytics.CodeInvalidPayload,
					Err:  fmt.Errorf("invalid payload: %w", err),
				}
			}
		}
		return fn(p), nil
	}
}

// Register installs or replaces the handler for kind
func (d *Dispatcher) Register(kind analytics.OperationKind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

// Supports reports whether kind has a handler
func (d *Dispatcher) Supports(kind analytics.OperationKind) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[kind]
	return ok
}

// Dispatch runs the handler for kind and encodes its result. Every failure,
// panics included, comes back as a *DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, kind analytics.OperationKind, payload json.RawMessage) (data json.RawMessage, err error) {
	d.mu.RLock()
	h, ok := d.handlers[kind]
	d.mu.RUnlock()
	if !ok {
		return nil, &DispatchError{
			Code: analytics.CodeUnknownOperation,
			Err:  fmt.Errorf("%w: %s", analytics.ErrUnknownOperation, kind),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &DispatchError{
				Code: analytics.CodeCalculationFailed,
				Err:  fmt.Errorf("%s panicked: %v", kind, r),
			}
		}
	}()

	result, err := h(ctx, payload)
	if err != nil {
		var de *DispatchError
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, &DispatchError{Code: analytics.CodeCalculationFailed, Err: err}
	}

	data, err = json.Marshal(result)
	if err != nil {
		return nil, &DispatchError{
			Code: analytics.CodeEncodingFailed,
			Err:  fmt.Errorf("failed to encode %s result: %w", kind, err),
		}
	}
	return data, nil
}
