package birddog

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDeviceErrorMessage(t *testing.T) {
	err := NewHTTPError(503, "GET hostname returned status 503")
	if !strings.Contains(err.Error(), "HTTP Error") {
		t.Errorf("Error() = %q, should contain category", err.Error())
	}
	if err.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", err.StatusCode)
	}
}

func TestDeviceErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("GET hostname failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the underlying cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, should include cause", err.Error())
	}
}

func TestErrorTypePredicates(t *testing.T) {
	cases := []struct {
		err       error
		predicate func(error) bool
		name      string
	}{
		{NewNetworkError("down", nil), IsNetworkError, "network"},
		{NewHTTPError(500, "boom"), IsHTTPError, "http"},
		{NewAuthError("login failed", nil), IsAuthError, "auth"},
		{NewDecodeError("bad json", nil), IsDecodeError, "decode"},
		{NewProtocolError("missing form"), IsProtocolError, "protocol"},
		{NewLookupError("no such index"), IsLookupError, "lookup"},
		{NewValidationError("bad value"), IsValidationError, "validation"},
	}

	for _, tc := range cases {
		if !tc.predicate(tc.err) {
			t.Errorf("%s predicate should match %v", tc.name, tc.err)
		}
	}

	// Predicates must not match other categories or plain errors
	if IsNetworkError(NewHTTPError(500, "boom")) {
		t.Error("IsNetworkError should not match an HTTP error")
	}
	if IsLookupError(errors.New("plain")) {
		t.Error("IsLookupError should not match a plain error")
	}
}

func TestPredicatesMatchWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("set source: %w", NewLookupError("no source at index 9"))
	if !IsLookupError(wrapped) {
		t.Error("IsLookupError should match through error wrapping")
	}
}

func TestShortMessage(t *testing.T) {
	if got := ShortMessage(NewHTTPError(404, "nope")); !strings.Contains(got, "404") {
		t.Errorf("ShortMessage for HTTP error = %q, should mention status", got)
	}
	if got := ShortMessage(NewLookupError("no source at index 9")); got != "no source at index 9" {
		t.Errorf("ShortMessage for lookup error = %q", got)
	}
	if got := ShortMessage(errors.New("plain failure")); got != "plain failure" {
		t.Errorf("ShortMessage for plain error = %q", got)
	}
}
