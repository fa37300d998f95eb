package errors

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"tlgsite/internal/pocketbase"
)

var (
	// ErrUnavailable is returned when the backend handle is not available.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the current user may not perform a privileged action.
	ErrForbidden = errors.New("forbidden")
	// ErrMediaRequired is returned when a news item has no image, external image or video.
	ErrMediaRequired = errors.New("media required")
	// ErrValidation is returned when submitted fields are invalid.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStaffNotConfigured is returned when no staff secret is configured on the server.
	ErrStaffNotConfigured = errors.New("server not configured")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain and backend errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "BACKEND_UNAVAILABLE")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrMediaRequired):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "MEDIA_REQUIRED")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrStaffNotConfigured):
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "NOT_CONFIGURED")
	}

	var ce *pocketbase.ClientError
	if errors.As(err, &ce) {
		switch ce.Status {
		case http.StatusBadRequest:
			return NewHTTPError(http.StatusBadRequest, ce.Message, "BACKEND_REJECTED")
		case http.StatusUnauthorized:
			return NewHTTPError(http.StatusUnauthorized, ce.Message, "UNAUTHORIZED")
		case http.StatusForbidden:
			return NewHTTPError(http.StatusForbidden, ce.Message, "FORBIDDEN")
		case http.StatusNotFound:
			return NewHTTPError(http.StatusNotFound, ce.Message, "NOT_FOUND")
		}
	}

	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// ParseError turns validator failures into a field -> message map.
func ParseError(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out["error"] = err.Error()
		}
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "url":
		return "Invalid URL"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	default:
		return "Invalid value"
	}
}
