package parser

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseError_LabelsAreDistinct(t *testing.T) {
	seen := make(map[string]ParseError)
	for _, e := range ParseErrors() {
		label := e.Error()
		if label == "" {
			t.Errorf("ParseError(%d) has no label", int(e))
			continue
		}
		if prev, ok := seen[label]; ok {
			t.Errorf("label %q shared by %d and %d", label, int(prev), int(e))
		}
		seen[label] = e
	}
	if got, want := len(ParseErrors()), int(errSentinel)-1; got != want {
		t.Errorf("ParseErrors() returned %d values, want %d", got, want)
	}
}

func TestParseError_Wrapped(t *testing.T) {
	err := fmt.Errorf("line 12: %w", ErrQmgrSizeNotInt)
	if !errors.Is(err, ErrQmgrSizeNotInt) {
		t.Error("errors.Is should see through wrapping")
	}
	if errors.Is(err, ErrQmgrNrcptNotInt) {
		t.Error("different checkpoints must not compare equal")
	}
	var pe ParseError
	if !errors.As(err, &pe) || pe != ErrQmgrSizeNotInt {
		t.Errorf("errors.As = %v, want %v", pe, ErrQmgrSizeNotInt)
	}
}

func TestParseError_OutOfRange(t *testing.T) {
	if got := ParseError(0).Error(); got != "parse error 0" {
		t.Errorf("ParseError(0).Error() = %q", got)
	}
	if got := errSentinel.Error(); got == "" {
		t.Error("sentinel should still format")
	}
}
