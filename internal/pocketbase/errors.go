package pocketbase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ClientError is returned for every failed call. Status is 0 when the request never got a response.
type ClientError struct {
	URL     string
	Status  int
	Message string
	Data    map[string]any
	Err     error
}

func (e *ClientError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("pocketbase: %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("pocketbase: %s: %d %s", e.URL, e.Status, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// FieldErrors flattens the per-field validation messages the service returns in data.
func (e *ClientError) FieldErrors() map[string]string {
	out := make(map[string]string)
	for field, raw := range e.Data {
		if detail, ok := raw.(map[string]any); ok {
			if msg, ok := detail["message"].(string); ok {
				out[field] = msg
			}
		}
	}
	return out
}

type errorBody struct {
	Status  int            `json:"status"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func newClientError(url string, status int, raw []byte) *ClientError {
	ce := &ClientError{URL: url, Status: status}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		ce.Message = body.Message
		ce.Data = body.Data
	}
	if ce.Message == "" {
		ce.Message = http.StatusText(status)
	}
	return ce
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// Message returns the human readable message of a service error, falling back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *ClientError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}

func retryable(err error) bool {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Status == 0 || ce.Status >= http.StatusInternalServerError
}
