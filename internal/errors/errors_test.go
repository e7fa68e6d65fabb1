package errors

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrUnknownArchitecture.WithDetails("known architectures: nanopet").WriteJSON(rec)

	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %s", ct)
	}

	var body APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Message != "Unknown Architecture" {
		t.Errorf("unexpected message: %s", body.Message)
	}
	if body.Details == "" {
		t.Error("expected details to survive serialization")
	}
}

func TestWithDetailsDoesNotMutateBase(t *testing.T) {
	derived := ErrBadRequest.WithDetails("invalid JSON document")
	if ErrBadRequest.Details != "" {
		t.Fatal("base error must stay untouched")
	}
	if derived.Details != "invalid JSON document" {
		t.Errorf("unexpected details: %s", derived.Details)
	}
	if derived.Code != ErrBadRequest.Code {
		t.Errorf("code must carry over, got %d", derived.Code)
	}
}

func TestWrapPreservesUnderlying(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	wrapped := Wrap(cause, 500, "schema load failed")
	if wrapped.Unwrap() != cause {
		t.Error("expected Unwrap to return the cause")
	}
	if wrapped.Error() != "schema load failed: disk on fire" {
		t.Errorf("unexpected Error(): %s", wrapped.Error())
	}
}

func TestIsAPIError(t *testing.T) {
	if _, ok := IsAPIError(fmt.Errorf("plain")); ok {
		t.Error("plain error must not be an APIError")
	}
	if ae, ok := IsAPIError(ErrNotFound); !ok || ae != ErrNotFound {
		t.Error("expected APIError to be recognized")
	}
}
