package mws

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error returned by, or while talking to, the MWS API.
type APIError struct {
	Operation  string
	Code       string
	Message    string
	StatusCode int
	RequestID  string
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mws %s error (%s): %s: %v", e.Operation, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("mws %s error (%s): %s", e.Operation, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for APIError.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewAPIError creates a new APIError.
func NewAPIError(operation, code, message string) *APIError {
	return &APIError{
		Operation: operation,
		Code:      code,
		Message:   message,
	}
}

// WithCause adds a cause to the error.
func (e *APIError) WithCause(err error) *APIError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// WithRequestID attaches the MWS request id reported by the service.
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithRetryable marks the error as retryable.
func (e *APIError) WithRetryable(retryable bool) *APIError {
	e.Retryable = retryable
	return e
}

var (
	// ErrThrottled indicates the request quota was exceeded.
	ErrThrottled = errors.New("request throttled")

	// ErrAuthenticationFailed indicates the credentials or signature were rejected.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidResponse indicates the response body could not be understood.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrFixtureNotFound indicates no recorded response exists for an operation.
	ErrFixtureNotFound = errors.New("fixture not found")
)

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrThrottled)
}

// errorResponse is the MWS error document.
type errorResponse struct {
	XMLName xml.Name `xml:"ErrorResponse"`
	Error   []struct {
		Type    string `xml:"Type"`
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	} `xml:"Error"`
	RequestID string `xml:"RequestId"`
}

// CheckResponse returns nil for a 200 response and an *APIError otherwise.
func CheckResponse(operation string, resp *Response) error {
	if resp == nil {
		return NewAPIError(operation, "EmptyResponse", "no response received").WithCause(ErrInvalidResponse)
	}
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	apiErr := NewAPIError(operation, fmt.Sprintf("HTTP_%d", resp.StatusCode), string(resp.Body)).
		WithStatusCode(resp.StatusCode).
		WithRequestID(resp.RequestID())

	var doc errorResponse
	if err := xml.Unmarshal(resp.Body, &doc); err == nil && len(doc.Error) > 0 {
		apiErr.Code = doc.Error[0].Code
		apiErr.Message = doc.Error[0].Message
		if doc.RequestID != "" {
			apiErr.RequestID = doc.RequestID
		}
	}

	switch {
	case apiErr.Code == "RequestThrottled", resp.StatusCode == http.StatusTooManyRequests:
		apiErr.WithCause(ErrThrottled).WithRetryable(true)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden,
		apiErr.Code == "InvalidAccessKeyId", apiErr.Code == "SignatureDoesNotMatch", apiErr.Code == "AccessDenied":
		apiErr.WithCause(ErrAuthenticationFailed)
	case resp.StatusCode >= http.StatusInternalServerError:
		apiErr.WithCause(ErrServiceUnavailable).WithRetryable(true)
	}

	return apiErr
}
