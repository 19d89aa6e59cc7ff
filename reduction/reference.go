// Package reduction is the multi-reduction conformance suite: it verifies
// that a queue executes several reductions in one kernel launch with correct
// results for every operator, data type, initial-value mode and span shape.
package reduction

import (
	"math"

	"github.com/openpar/cts/par"
)

// Expected computes the reference result for one operand on the host. Float
// references accumulate in float64 regardless of operand width; integer
// references are exact (with wraparound on overflow, matching two's
// complement device arithmetic).
func Expected(op par.ReduceOperand) (interface{}, error) {
	if _, err := par.ValidateOperands([]par.ReduceOperand{op}); err != nil {
		return nil, err
	}
	span := op.SpanLen()

	if op.Type.Float() {
		acc := make([]float64, span)
		for i := range acc {
			acc[i] = floatInit(op)
		}
		switch data := op.Data.(type) {
		case []float32:
			for i, v := range data {
				acc[i%span] = foldFloat(op.Op, acc[i%span], float64(v))
			}
			return narrowFloats32(acc, span), nil
		case []float64:
			for i, v := range data {
				acc[i%span] = foldFloat(op.Op, acc[i%span], v)
			}
			if span == 1 {
				return acc[0], nil
			}
			return acc, nil
		}
	}

	acc := make([]int64, span)
	for i := range acc {
		acc[i] = intInit(op)
	}
	switch data := op.Data.(type) {
	case []int32:
		for i, v := range data {
			acc[i%span] = foldInt(op.Op, acc[i%span], int64(v))
		}
		return narrowInts32(acc, span), nil
	case []int64:
		for i, v := range data {
			acc[i%span] = foldInt(op.Op, acc[i%span], v)
		}
		if span == 1 {
			return acc[0], nil
		}
		return acc, nil
	}

	// ValidateOperands already rejected mismatched data.
	return nil, &par.Error{Code: par.ErrcInvalid, Op: "Expected",
		Message: "operand data does not match its type"}
}

// floatInit resolves the starting accumulator for a float operand.
func floatInit(op par.ReduceOperand) float64 {
	if op.InitToIdentity || op.Init == nil {
		return par.IdentityFloat64(op.Op)
	}
	switch v := op.Init.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	}
	return par.IdentityFloat64(op.Op)
}

// intInit resolves the starting accumulator for an integer operand.
func intInit(op par.ReduceOperand) int64 {
	if op.InitToIdentity || op.Init == nil {
		return par.IdentityInt64(op.Op, op.Type)
	}
	switch v := op.Init.(type) {
	case int32:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return par.IdentityInt64(op.Op, op.Type)
}

func foldFloat(op par.ReduceOp, a, b float64) float64 {
	switch op {
	case par.ReduceSum:
		return a + b
	case par.ReduceProd:
		return a * b
	case par.ReduceMin:
		return math.Min(a, b)
	case par.ReduceMax:
		return math.Max(a, b)
	default:
		return a
	}
}

func foldInt(op par.ReduceOp, a, b int64) int64 {
	switch op {
	case par.ReduceSum:
		return a + b
	case par.ReduceProd:
		return a * b
	case par.ReduceMin:
		if b < a {
			return b
		}
		return a
	case par.ReduceMax:
		if b > a {
			return b
		}
		return a
	case par.ReduceBitAnd:
		return a & b
	case par.ReduceBitOr:
		return a | b
	case par.ReduceBitXor:
		return a ^ b
	default:
		return a
	}
}

func narrowFloats32(acc []float64, span int) interface{} {
	if span == 1 {
		return float32(acc[0])
	}
	out := make([]float32, span)
	for i, v := range acc {
		out[i] = float32(v)
	}
	return out
}

func narrowInts32(acc []int64, span int) interface{} {
	if span == 1 {
		return int32(acc[0])
	}
	out := make([]int32, span)
	for i, v := range acc {
		out[i] = int32(v)
	}
	return out
}
