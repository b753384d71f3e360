package notegraph

import (
	"context"
	"errors"
	"net/http"

	"github.com/dan-solli/notegraph/pkg/store"
)

// ErrForbidden is returned when the acting user may not modify a note.
var ErrForbidden = errors.New("forbidden")

// Error type constants for classification
const (
	ErrTypeNotFound     = "not_found"
	ErrTypeConflict     = "conflict"
	ErrTypeInvalidInput = "invalid_input"
	ErrTypeForbidden    = "forbidden"
	ErrTypeTimeout      = "timeout"
	ErrTypeStorage      = "storage"
	ErrTypeUnknown      = "unknown"
)

// ClassifyError inspects an error and returns its type classification.
// This enables grouping errors by category in metrics, traces and logs.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrTypeTimeout
	case errors.Is(err, store.ErrNotFound):
		return ErrTypeNotFound
	case errors.Is(err, store.ErrVersionConflict), errors.Is(err, store.ErrNextConflict),
		errors.Is(err, store.ErrAlreadyFollowing):
		return ErrTypeConflict
	case errors.Is(err, store.ErrInvalidInput):
		return ErrTypeInvalidInput
	case errors.Is(err, ErrForbidden):
		return ErrTypeForbidden
	case errors.Is(err, store.ErrStorage):
		return ErrTypeStorage
	default:
		return ErrTypeUnknown
	}
}

// StatusCode maps an error to the HTTP status a request layer should answer
// with. A nil error maps to 200.
func StatusCode(err error) int {
	switch ClassifyError(err) {
	case "":
		return http.StatusOK
	case ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeConflict:
		return http.StatusConflict
	case ErrTypeInvalidInput:
		return http.StatusUnprocessableEntity
	case ErrTypeForbidden:
		return http.StatusForbidden
	case ErrTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
