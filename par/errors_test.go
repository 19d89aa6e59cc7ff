package par

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	e := &Error{Code: ErrcRuntime, Op: "Select", Message: "no device"}
	want := "par runtime error in Select: no device"
	if e.Error() != want {
		t.Errorf("got %q, want %q", e.Error(), want)
	}

	wrapped := &Error{Code: ErrcKernel, Op: "Build", Message: "compile failed",
		Err: errors.New("syntax error")}
	if wrapped.Error() != "par kernel error in Build: compile failed (caused by: syntax error)" {
		t.Errorf("unexpected wrapped message %q", wrapped.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	e := &Error{Code: ErrcMemoryAllocation, Op: "Malloc", Message: "oom", Err: inner}
	if !errors.Is(e, inner) {
		t.Error("errors.Is should reach the wrapped error")
	}
}

func TestCodeOf(t *testing.T) {
	e := &Error{Code: ErrcPlatform, Op: "Enumerate", Message: "driver down"}
	if CodeOf(e) != ErrcPlatform {
		t.Errorf("CodeOf direct = %s", CodeOf(e))
	}

	wrapped := fmt.Errorf("outer context: %w", e)
	if CodeOf(wrapped) != ErrcPlatform {
		t.Errorf("CodeOf through fmt wrapping = %s", CodeOf(wrapped))
	}

	if CodeOf(errors.New("plain")) != ErrcSuccess {
		t.Error("plain errors carry no code")
	}
	if CodeOf(nil) != ErrcSuccess {
		t.Error("nil error carries no code")
	}
}

func TestErrc_String(t *testing.T) {
	known := map[Errc]string{
		ErrcSuccess:             "success",
		ErrcRuntime:             "runtime",
		ErrcKernel:              "kernel",
		ErrcNDRange:             "nd_range",
		ErrcInvalid:             "invalid",
		ErrcMemoryAllocation:    "memory_allocation",
		ErrcPlatform:            "platform",
		ErrcFeatureNotSupported: "feature_not_supported",
		ErrcBackendMismatch:     "backend_mismatch",
	}
	for c, want := range known {
		if c.String() != want {
			t.Errorf("Errc(%d).String() = %q, want %q", int(c), c.String(), want)
		}
	}
	if Errc(99).String() != "unknown" {
		t.Errorf("out of range code stringified as %q", Errc(99).String())
	}
}

func TestValidateOperands(t *testing.T) {
	valid := []ReduceOperand{
		{Op: ReduceSum, Type: INT64, Data: []int64{1, 2}},
		{Op: ReduceMax, Type: Float64, Data: []float64{1, 2}},
	}
	n, err := ValidateOperands(valid)
	if err != nil {
		t.Fatalf("valid operands rejected: %v", err)
	}
	if n != 2 {
		t.Errorf("common length = %d, want 2", n)
	}

	t.Run("empty", func(t *testing.T) {
		if _, err := ValidateOperands(nil); CodeOf(err) != ErrcInvalid {
			t.Errorf("expected errc invalid, got %v", err)
		}
	})

	t.Run("length_mismatch", func(t *testing.T) {
		bad := []ReduceOperand{
			{Op: ReduceSum, Type: INT64, Data: []int64{1, 2}},
			{Op: ReduceSum, Type: INT64, Data: []int64{1}},
		}
		if _, err := ValidateOperands(bad); CodeOf(err) != ErrcInvalid {
			t.Errorf("expected errc invalid, got %v", err)
		}
	})

	t.Run("bitwise_on_float", func(t *testing.T) {
		bad := []ReduceOperand{
			{Op: ReduceBitOr, Type: Float64, Data: []float64{1}},
		}
		if _, err := ValidateOperands(bad); CodeOf(err) != ErrcInvalid {
			t.Errorf("expected errc invalid, got %v", err)
		}
	})
}
