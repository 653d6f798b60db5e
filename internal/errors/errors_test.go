package errors

import (
	"errors"
	"fmt"
	"testing"
)

type pathError struct {
	Path string
}

func (e pathError) Error() string { return "bad path: " + e.Path }

func TestWrap(t *testing.T) {
	base := errors.New("disk full")

	t.Run("adds context and keeps the chain", func(t *testing.T) {
		wrapped := Wrap(base, "failed to seal page")
		if got, want := wrapped.Error(), "failed to seal page: disk full"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
		if !errors.Is(wrapped, base) {
			t.Error("wrapped error lost the original")
		}
	})

	t.Run("nil passes through", func(t *testing.T) {
		if Wrap(nil, "failed to seal page") != nil {
			t.Error("wrapping nil should stay nil")
		}
	})
}

func TestWrapf(t *testing.T) {
	base := errors.New("disk full")

	t.Run("formats context and keeps the chain", func(t *testing.T) {
		wrapped := Wrapf(base, "failed to seal page %d", 3)
		if got, want := wrapped.Error(), "failed to seal page 3: disk full"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
		if !errors.Is(wrapped, base) {
			t.Error("wrapped error lost the original")
		}
	})

	t.Run("nil passes through", func(t *testing.T) {
		if Wrapf(nil, "failed to seal page %d", 3) != nil {
			t.Error("wrapping nil should stay nil")
		}
	})
}

func TestIsAndAs(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "document lookup")
	if !Is(wrapped, ErrNotFound) {
		t.Error("Is should see ErrNotFound through the wrap")
	}
	if Is(wrapped, ErrConflict) {
		t.Error("Is should not match an unrelated sentinel")
	}

	cause := pathError{Path: "../outside"}
	chained := fmt.Errorf("import rejected: %w", cause)
	var target pathError
	if !As(chained, &target) {
		t.Fatal("As should extract the pathError")
	}
	if target.Path != "../outside" {
		t.Errorf("got path %q, want %q", target.Path, "../outside")
	}
}

func TestJoin(t *testing.T) {
	first := New("first page failed")
	second := New("second page failed")

	joined := Join(first, nil, second)
	if joined == nil {
		t.Fatal("expected joined error, got nil")
	}
	if !errors.Is(joined, first) || !errors.Is(joined, second) {
		t.Error("joined error should contain both originals")
	}

	if Join(nil, nil) != nil {
		t.Error("joining only nils should stay nil")
	}
}

func TestSentinelMessages(t *testing.T) {
	tests := []struct {
		err  error
		text string
	}{
		{ErrNotFound, "not found"},
		{ErrConflict, "conflict"},
		{ErrInvalidInput, "invalid input"},
	}

	for _, tt := range tests {
		if tt.err.Error() != tt.text {
			t.Errorf("got %q, want %q", tt.err.Error(), tt.text)
		}
	}
}
