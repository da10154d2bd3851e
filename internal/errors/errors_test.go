package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestGetCodeUnwrapsChains(t *testing.T) {
	t.Parallel()

	inner := New(CodeNotFound, "attendee missing")
	wrapped := fmt.Errorf("lookup: %w", inner)

	if got := GetCode(wrapped); got != CodeNotFound {
		t.Fatalf("code = %q, want %q", got, CodeNotFound)
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Fatal("plain error should map to CodeUnknown")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := Wrap(CodePersistence, "insert ticket", stderrors.New("disk full"))
	if !stderrors.Is(err, New(CodePersistence, "")) {
		t.Fatal("errors with equal codes should match")
	}
	if stderrors.Is(err, New(CodeValidation, "")) {
		t.Fatal("errors with different codes should not match")
	}
	if err.Unwrap() == nil {
		t.Fatal("expected wrapped cause")
	}
}

func TestMetadataCarriesFields(t *testing.T) {
	t.Parallel()

	err := WithMetadata(CodeValidation, "invalid draft", map[string]string{"age": "out of range"})
	meta := GetMetadata(fmt.Errorf("register: %w", err))
	if meta["age"] != "out of range" {
		t.Fatalf("metadata = %v, want age entry", meta)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeTicketNumberExhausted, http.StatusConflict},
		{CodePersistence, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("%s status = %d, want %d", tc.code, got, tc.want)
		}
	}
}
