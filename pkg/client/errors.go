package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures (DNS, refused, timeout).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnexpected represents non-2xx statuses outside 4xx/5xx.
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// ErrorPayload is the error body Jira returns with non-2xx responses.
type ErrorPayload struct {
	ErrorMessages []string          `json:"errorMessages,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
}

// empty reports whether the payload carries no messages.
func (p *ErrorPayload) empty() bool {
	return p == nil || (len(p.ErrorMessages) == 0 && len(p.Errors) == 0)
}

// String joins all messages; field errors are sorted by field name.
func (p *ErrorPayload) String() string {
	if p == nil {
		return ""
	}
	parts := append([]string(nil), p.ErrorMessages...)

	fields := make([]string, 0, len(p.Errors))
	for field := range p.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, p.Errors[field]))
	}
	return strings.Join(parts, "; ")
}

// APIError is returned for every failed request.
//
// Remote failures carry StatusCode and, when the body parsed as a Jira error
// document, Payload. Transport failures have ErrorClassNetwork, a zero
// StatusCode and the underlying error in Err.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Endpoint   string
	Message    string
	Payload    *ErrorPayload
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jira %s error (%s): %s: %v",
			e.ErrorClass, e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("jira %s error (status %d, %s): %s",
		e.ErrorClass, e.StatusCode, e.Endpoint, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// newAPIError builds the error for a non-2xx response. The message is the
// remote payload when present, else the raw body, else the status text.
func newAPIError(status int, class ErrorClass, endpoint, statusText string, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		ErrorClass: class,
		Endpoint:   endpoint,
		Body:       string(body),
		Message:    statusText,
	}

	var payload ErrorPayload
	if err := json.Unmarshal(body, &payload); err == nil && !payload.empty() {
		apiErr.Payload = &payload
		apiErr.Message = payload.String()
		return apiErr
	}

	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		apiErr.Message = trimmed
	}
	return apiErr
}
