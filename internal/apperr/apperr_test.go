package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: cause, want: CodeInternal},
		{name: "typed", err: New(CodeConflict, "offer exists"), want: CodeConflict},
		{name: "wrapped typed", err: fmt.Errorf("send offer: %w", NotFound("application")), want: CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Fatalf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeInternal, "failed to load room", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if !Is(err, CodeInternal) {
		t.Fatalf("expected internal code, got %q", CodeOf(err))
	}
	if Is(nil, CodeInternal) {
		t.Fatalf("nil error must not match any code")
	}
}
