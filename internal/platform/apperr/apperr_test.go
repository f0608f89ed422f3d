package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := DuplicateRequest("a document of this type was already requested")
	wrapped := fmt.Errorf("request signature: %w", base)

	if got := KindOf(wrapped); got != KindDuplicateRequest {
		t.Errorf("expected %q, got %q", KindDuplicateRequest, got)
	}
	if !IsKind(wrapped, KindDuplicateRequest) {
		t.Error("expected IsKind to match through wrapping")
	}
	if IsKind(nil, KindDuplicateRequest) {
		t.Error("nil error must not match any kind")
	}
}

func TestKindOf_Plain(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Errorf("expected unknown kind, got %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:               http.StatusNotFound,
		KindDuplicateRequest:       http.StatusConflict,
		KindInvalidTransition:      http.StatusConflict,
		KindInsufficientStock:      http.StatusUnprocessableEntity,
		KindValidation:             http.StatusBadRequest,
		KindReconciliationRequired: http.StatusInternalServerError,
		KindUnknown:                http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", kind, got, want)
		}
	}
}

func TestHTTPError_Classified(t *testing.T) {
	he := HTTPError(InvalidTransition("this document was already signed"))
	if he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", he.Code)
	}
	body, ok := he.Message.(map[string]string)
	if !ok {
		t.Fatalf("expected map message, got %T", he.Message)
	}
	if body["error"] != string(KindInvalidTransition) {
		t.Errorf("unexpected error kind in body: %v", body)
	}
	if body["message"] != "this document was already signed" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestHTTPError_Unclassified(t *testing.T) {
	he := HTTPError(errors.New("pq: connection reset"))
	if he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", he.Code)
	}
	if he.Message != "internal server error" {
		t.Errorf("driver message leaked: %v", he.Message)
	}
}

func TestReconciliationRequired_Unwrap(t *testing.T) {
	cause := errors.New("insert failed")
	err := ReconciliationRequired(cause, "stock debited but event not saved")
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}
