package domain

import (
	"fmt"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"nil", nil, ""},
		{"not authorized", ErrNotAuthorized, "not_authorized"},
		{"stale identity", ErrStaleIdentity, "stale_identity"},
		{"not found", &NotFoundError{Target: "Alice"}, "not_found"},
		{"ambiguous", &AmbiguousError{Name: "Alice", Matches: make([]*ConversationRecord, 2)}, "ambiguous"},
		{"out of range", &OutOfRangeError{Index: 5, Count: 3}, "out_of_range"},
		{"plain error", fmt.Errorf("page crashed"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.code {
				t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.code)
			}
		})
	}
}

// Usecases wrap errors on the way up; the code must survive wrapping.
func TestErrorCodeSurvivesWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"wrapped sentinel", fmt.Errorf("open conversation: %w", ErrNotAuthorized), "not_authorized"},
		{"wrapped stale", fmt.Errorf("resolve: %w", ErrStaleIdentity), "stale_identity"},
		{"wrapped typed", fmt.Errorf("open: %w", &OutOfRangeError{Index: 5, Count: 3}), "out_of_range"},
		{"double wrapped", fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", &NotFoundError{Target: "Bob"})), "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.code {
				t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.code)
			}
		})
	}
}

func TestOutOfRangeErrorMessage(t *testing.T) {
	err := &OutOfRangeError{Index: 5, Count: 3}
	want := "card index 5 out of range (3 cards in current list)"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
