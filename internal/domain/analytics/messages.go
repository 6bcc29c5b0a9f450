package analytics

import (
	"encoding/json"
	"fmt"
)

// ResponseType tags a Response as a result or an error
type ResponseType string

const (
	ResponseResult ResponseType = "RESULT"
	ResponseError  ResponseType = "ERROR"
)

// Request is sent from a caller to the worker context
type Request struct {
	Type      OperationKind   `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"requestId"`
	CacheKey  string          `json:"cacheKey,omitempty"`
}

// Response is sent from the worker context back to the caller.
// RequestID always echoes the originating Request.
type Response struct {
	Type      ResponseType    `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"requestId"`
	FromCache bool            `json:"fromCache,omitempty"`
}

// ErrorPayload is the payload of an ERROR response
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewResultResponse builds a RESULT response carrying already encoded data
func NewResultResponse(requestID string, data json.RawMessage, fromCache bool) *Response {
	return &Response{
		Type:      ResponseResult,
		Payload:   data,
		RequestID: requestID,
		FromCache: fromCache,
	}
}

// NewErrorResponse builds an ERROR response
func NewErrorResponse(requestID, code, message string) *Response {
	// ErrorPayload only holds strings, marshaling cannot fail
	data, _ := json.Marshal(ErrorPayload{Message: message, Code: code})
	return &Response{
		Type:      ResponseError,
		Payload:   data,
		RequestID: requestID,
	}
}

// DecodeError extracts the error payload of an ERROR response
func (r *Response) DecodeError() ErrorPayload {
	var p ErrorPayload
	if err := json.Unmarshal(r.Payload, &p); err != nil || p.Message == "" {
		p.Message = fmt.Sprintf("malformed error payload: %s", string(r.Payload))
	}
	return p
}
