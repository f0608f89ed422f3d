// Package apperr defines the typed error kinds returned by the clinic core
// operations and their translation to HTTP responses. Callers branch on the
// Kind to choose a user message; the message carried by the error is already
// phrased for an operator ("a document of this type was already requested").
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies an error for the presentation layer.
type Kind string

const (
	KindUnknown                Kind = ""
	KindNotFound               Kind = "not_found"
	KindDuplicateRequest       Kind = "duplicate_request"
	KindInvalidTransition      Kind = "invalid_transition"
	KindInsufficientStock      Kind = "insufficient_stock"
	KindAssetResolutionFailed  Kind = "asset_resolution_failed"
	KindValidation             Kind = "validation"
	KindReconciliationRequired Kind = "reconciliation_required"
)

// Error is a classified error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func DuplicateRequest(format string, args ...interface{}) *Error {
	return newf(KindDuplicateRequest, format, args...)
}

func InvalidTransition(format string, args ...interface{}) *Error {
	return newf(KindInvalidTransition, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

// AssetResolutionFailed wraps an asset store failure. It never crosses the
// media resolver boundary; it exists so the failure can be logged with a kind.
func AssetResolutionFailed(err error, path string) *Error {
	return &Error{Kind: KindAssetResolutionFailed, Message: fmt.Sprintf("resolve asset %q", path), Err: err}
}

// ReconciliationRequired marks a partially applied operation that an operator
// has to reconcile by hand.
func ReconciliationRequired(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindReconciliationRequired, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to a response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateRequest, KindInvalidTransition:
		return http.StatusConflict
	case KindInsufficientStock:
		return http.StatusUnprocessableEntity
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError converts err into an *echo.HTTPError carrying the kind and the
// operator-facing message. Unclassified errors become a generic 500 so that
// driver messages do not leak to clients.
func HTTPError(err error) *echo.HTTPError {
	var ae *Error
	if !errors.As(err, &ae) {
		he := echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		he.Internal = err
		return he
	}
	he := echo.NewHTTPError(HTTPStatus(ae.Kind), map[string]string{
		"error":   string(ae.Kind),
		"message": ae.Message,
	})
	he.Internal = err
	return he
}
