package par

import "math"

// ReduceOp is a reduction operator.
type ReduceOp int

const (
	ReduceSum ReduceOp = iota + 1
	ReduceProd
	ReduceMin
	ReduceMax
	ReduceBitAnd
	ReduceBitOr
	ReduceBitXor
)

func (op ReduceOp) String() string {
	switch op {
	case ReduceSum:
		return "sum"
	case ReduceProd:
		return "prod"
	case ReduceMin:
		return "min"
	case ReduceMax:
		return "max"
	case ReduceBitAnd:
		return "bit_and"
	case ReduceBitOr:
		return "bit_or"
	case ReduceBitXor:
		return "bit_xor"
	default:
		return "unknown"
	}
}

// Bitwise reports whether op only applies to integer types.
func (op ReduceOp) Bitwise() bool {
	return op == ReduceBitAnd || op == ReduceBitOr || op == ReduceBitXor
}

// DataType represents the precision of numerical data
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	INT32
	INT64
)

func (t DataType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case INT32:
		return "int32"
	case INT64:
		return "int64"
	default:
		return "unknown"
	}
}

// Float reports whether t is a floating-point type.
func (t DataType) Float() bool {
	return t == Float32 || t == Float64
}

// ReduceOperand describes one reduction to run inside a multi-reduction
// kernel launch.
type ReduceOperand struct {
	Op   ReduceOp
	Type DataType

	// Data holds the input stream as []float32, []float64, []int32 or
	// []int64, matching Type. All operands in one launch must have equal
	// length.
	Data interface{}

	// Init is the initial accumulator value (scalar of Type). nil means the
	// operation identity.
	Init interface{}

	// InitToIdentity forces the identity even when Init is set, mirroring
	// the initialize_to_identity reduction property.
	InitToIdentity bool

	// Span selects an array reduction with Span accumulators; element i
	// contributes to accumulator i%Span. 0 or 1 means a scalar reduction.
	Span int
}

// DataLen returns the length of the operand's input stream, or -1 when Data
// does not match Type.
func (r ReduceOperand) DataLen() int {
	switch r.Type {
	case Float32:
		if v, ok := r.Data.([]float32); ok {
			return len(v)
		}
	case Float64:
		if v, ok := r.Data.([]float64); ok {
			return len(v)
		}
	case INT32:
		if v, ok := r.Data.([]int32); ok {
			return len(v)
		}
	case INT64:
		if v, ok := r.Data.([]int64); ok {
			return len(v)
		}
	}
	return -1
}

// SpanLen normalizes Span: scalar reductions report 1.
func (r ReduceOperand) SpanLen() int {
	if r.Span <= 1 {
		return 1
	}
	return r.Span
}

// ValidateOperands checks a multi-reduction request: at least one operand,
// known op/type pairs, consistent stream lengths. It returns the common
// stream length.
func ValidateOperands(ops []ReduceOperand) (int, error) {
	if len(ops) == 0 {
		return 0, invalidErr("MultiReduce", "no reduction operands")
	}
	n := -1
	for i, op := range ops {
		if op.Op < ReduceSum || op.Op > ReduceBitXor {
			return 0, invalidErr("MultiReduce", "operand %d: unknown op %d", i, int(op.Op))
		}
		if op.Type < Float32 || op.Type > INT64 {
			return 0, invalidErr("MultiReduce", "operand %d: unknown type %d", i, int(op.Type))
		}
		if op.Op.Bitwise() && op.Type.Float() {
			return 0, invalidErr("MultiReduce", "operand %d: %s is not defined for %s",
				i, op.Op, op.Type)
		}
		dl := op.DataLen()
		if dl < 0 {
			return 0, invalidErr("MultiReduce", "operand %d: data does not match type %s",
				i, op.Type)
		}
		if n == -1 {
			n = dl
		} else if dl != n {
			return 0, invalidErr("MultiReduce", "operand %d: stream length %d != %d", i, dl, n)
		}
	}
	return n, nil
}

// IdentityFloat64 returns the identity of op in the float64 domain. It covers
// Float32 operands as well; float32 identities are the same values narrowed.
func IdentityFloat64(op ReduceOp) float64 {
	switch op {
	case ReduceSum:
		return 0
	case ReduceProd:
		return 1
	case ReduceMin:
		return math.Inf(1)
	case ReduceMax:
		return math.Inf(-1)
	default:
		return 0
	}
}

// IdentityInt64 returns the identity of op in the int64 domain for the given
// integer type width.
func IdentityInt64(op ReduceOp, t DataType) int64 {
	switch op {
	case ReduceSum, ReduceBitOr, ReduceBitXor:
		return 0
	case ReduceProd:
		return 1
	case ReduceMin:
		if t == INT32 {
			return math.MaxInt32
		}
		return math.MaxInt64
	case ReduceMax:
		if t == INT32 {
			return math.MinInt32
		}
		return math.MinInt64
	case ReduceBitAnd:
		return -1 // all bits set in either width
	default:
		return 0
	}
}
