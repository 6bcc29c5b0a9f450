package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when no response arrives within the request timeout
	ErrTimeout = errors.New("analytics request timed out")

	// ErrContextFailure is returned to every pending request when the worker context dies
	ErrContextFailure = errors.New("analytics worker context failed")

	// ErrClosed is returned when sending through a terminated correlator
	ErrClosed = errors.New("analytics engine closed")

	// ErrCanceled is returned when the caller abandons a pending request
	ErrCanceled = errors.New("analytics request canceled")

	// ErrUnknownOperation is returned for an operation kind the worker cannot route
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrComputation is returned when an algorithm fails for a single request
	ErrComputation = errors.New("analytics computation failed")
)

// Error codes carried in ErrorPayload.Code
const (
	CodeCalculationFailed = "CALCULATION_FAILED"
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeUnknownOperation  = "UNKNOWN_OPERATION"
	CodeEncodingFailed    = "ENCODING_FAILED"
)

// ErrorKind categorizes an EngineError
type ErrorKind string

const (
	KindComputation      ErrorKind = "COMPUTATION"
	KindUnknownOperation ErrorKind = "UNKNOWN_OPERATION"
	KindTimeout          ErrorKind = "TIMEOUT"
	KindContextFailure   ErrorKind = "CONTEXT_FAILURE"
	KindClosed           ErrorKind = "CLOSED"
	KindCanceled         ErrorKind = "CANCELED"
)

// EngineError is the error every rejected request receives
type EngineError struct {
	Kind      ErrorKind     `json:"kind"`
	Code      string        `json:"code,omitempty"`
	Message   string        `json:"message"`
	Operation OperationKind `json:"operation,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Cause     error         `json:"-"`
}

// NewEngineError creates an EngineError
func NewEngineError(kind ErrorKind, op OperationKind, message string) *EngineError {
	return &EngineError{Kind: kind, Operation: op, Message: message}
}

// WithCause attaches the underlying error
func (e *EngineError) WithCause(cause error) *EngineError {
	e.Cause = cause
	return e
}

// WithRequestID attaches the correlation id
func (e *EngineError) WithRequestID(id string) *EngineError {
	e.RequestID = id
	return e
}

// Error implements the error interface
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Code != "" {
		msg = fmt.Sprintf("[%s/%s] %s", e.Kind, e.Code, e.Message)
	}
	if e.Operation != "" {
		msg += fmt.Sprintf(" (operation: %s)", e.Operation)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel error of the error kind
func (e *EngineError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *EngineError) sentinel() error {
	switch e.Kind {
	case KindTimeout:
		return ErrTimeout
	case KindContextFailure:
		return ErrContextFailure
	case KindClosed:
		return ErrClosed
	case KindCanceled:
		return ErrCanceled
	case KindUnknownOperation:
		return ErrUnknownOperation
	case KindComputation:
		return ErrComputation
	}
	return nil
}

// ErrorFromResponse converts an ERROR response into an EngineError
func ErrorFromResponse(op OperationKind, resp *Response) *EngineError {
	p := resp.DecodeError()
	kind := KindComputation
	if p.Code == CodeUnknownOperation {
		kind = KindUnknownOperation
	}
	return &EngineError{
		Kind:      kind,
		Code:      p.Code,
		Message:   p.Message,
		Operation: op,
		RequestID: resp.RequestID,
	}
}
