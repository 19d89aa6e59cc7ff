package reduction

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/openpar/cts/harness"
	"github.com/openpar/cts/internal/minstd"
	"github.com/openpar/cts/par"
)

// Options tunes the reduction suite. The zero value selects the standard
// run: default element count 256, the full size sweep, seed 1.
type Options struct {
	DefaultN int
	Sizes    []int
	Seed     uint32
}

func (o Options) withDefaults() Options {
	if o.DefaultN == 0 {
		o.DefaultN = 256
	}
	if o.Sizes == nil {
		o.Sizes = []int{1, 7, 64, 1000, 4099}
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	return o
}

var allTypes = []par.DataType{par.INT32, par.INT64, par.Float32, par.Float64}

// opsForType lists the operators defined for a data type; bitwise operators
// are integer-only.
func opsForType(t par.DataType) []par.ReduceOp {
	ops := []par.ReduceOp{par.ReduceSum, par.ReduceProd, par.ReduceMin, par.ReduceMax}
	if !t.Float() {
		ops = append(ops, par.ReduceBitAnd, par.ReduceBitOr, par.ReduceBitXor)
	}
	return ops
}

// BuildSuite assembles the multi-reduction conformance suite against rt. The
// queue is opened with an unconstrained selector per case; runtimes with no
// devices skip every case.
func BuildSuite(rt par.Runtime, opts Options, logger *slog.Logger) *harness.Suite {
	opts = opts.withDefaults()
	s := harness.NewSuite("reduction", logger)

	// Every unordered pair of distinct ops for each type, two reductions in
	// one kernel.
	for _, typ := range allTypes {
		ops := opsForType(typ)
		for i := 0; i < len(ops); i++ {
			for j := i + 1; j < len(ops); j++ {
				typ, op1, op2 := typ, ops[i], ops[j]
				s.Add(fmt.Sprintf("pair/%s/%s+%s", typ, op1, op2), func(t *harness.T) {
					q := openQueue(t, rt)
					operands := []par.ReduceOperand{
						makeOperand(op1, typ, opts.DefaultN, opts.Seed),
						makeOperand(op2, typ, opts.DefaultN, opts.Seed+1),
					}
					checkMultiReduce(t, q, operands, opts.DefaultN)
				})
			}
		}
	}

	// Every valid op for the type at once, in a single launch.
	for _, typ := range allTypes {
		typ := typ
		s.Add(fmt.Sprintf("all_ops/%s", typ), func(t *harness.T) {
			q := openQueue(t, rt)
			var operands []par.ReduceOperand
			for k, op := range opsForType(typ) {
				operands = append(operands,
					makeOperand(op, typ, opts.DefaultN, opts.Seed+uint32(k)))
			}
			checkMultiReduce(t, q, operands, opts.DefaultN)
		})
	}

	// Initial-value semantics: a non-identity Init must be folded in unless
	// InitToIdentity discards it.
	s.Add("init/honored", func(t *harness.T) {
		q := openQueue(t, rt)
		sum := makeOperand(par.ReduceSum, par.INT64, opts.DefaultN, opts.Seed)
		sum.Init = int64(100)
		max := makeOperand(par.ReduceMax, par.Float64, opts.DefaultN, opts.Seed+1)
		max.Init = float64(1e9)
		checkMultiReduce(t, q, []par.ReduceOperand{sum, max}, opts.DefaultN)
	})
	s.Add("init/identity_property", func(t *harness.T) {
		q := openQueue(t, rt)
		sum := makeOperand(par.ReduceSum, par.INT64, opts.DefaultN, opts.Seed)
		sum.Init = int64(100)
		sum.InitToIdentity = true
		min := makeOperand(par.ReduceMin, par.Float32, opts.DefaultN, opts.Seed+1)
		min.Init = float32(-1e9)
		min.InitToIdentity = true
		checkMultiReduce(t, q, []par.ReduceOperand{sum, min}, opts.DefaultN)
	})

	// Span reductions mixed with scalar ones in a single launch.
	s.Add("span/mixed", func(t *harness.T) {
		q := openQueue(t, rt)
		span := makeOperand(par.ReduceSum, par.INT64, opts.DefaultN, opts.Seed)
		span.Span = 4
		spanF := makeOperand(par.ReduceMax, par.Float64, opts.DefaultN, opts.Seed+1)
		spanF.Span = 3
		scalarOp := makeOperand(par.ReduceMin, par.INT32, opts.DefaultN, opts.Seed+2)
		checkMultiReduce(t, q, []par.ReduceOperand{span, spanF, scalarOp}, opts.DefaultN)
	})

	// Size sweep with a fixed mixed pair.
	for _, n := range opts.Sizes {
		n := n
		s.Add(fmt.Sprintf("size/%d", n), func(t *harness.T) {
			q := openQueue(t, rt)
			operands := []par.ReduceOperand{
				makeOperand(par.ReduceSum, par.Float32, n, opts.Seed),
				makeOperand(par.ReduceMax, par.INT64, n, opts.Seed+1),
			}
			checkMultiReduce(t, q, operands, n)
		})
	}

	return s
}

// openQueue opens a queue on any device; runtimes without devices skip.
func openQueue(t *harness.T, rt par.Runtime) par.Queue {
	q, err := rt.NewQueue(par.AspectSelector(nil))
	if err != nil {
		if par.CodeOf(err) == par.ErrcRuntime {
			t.Skipf("no device available: %v", err)
		}
		t.Fatalf("failed to open queue: %v", err)
	}
	return q
}

// checkMultiReduce runs one launch and compares every result slot against
// the host reference.
func checkMultiReduce(t *harness.T, q par.Queue, ops []par.ReduceOperand, n int) {
	results, err := q.MultiReduce(ops)
	if err != nil {
		t.Fatalf("MultiReduce failed: %v", err)
	}
	if len(results) != len(ops) {
		t.Fatalf("MultiReduce returned %d results for %d operands", len(results), len(ops))
	}
	for i, op := range ops {
		want, err := Expected(op)
		if err != nil {
			t.Fatalf("operand %d: reference computation failed: %v", i, err)
		}
		compareResult(t, i, op, results[i], want, n)
	}
}

// Tolerances for float comparison. Accumulation order on the device is
// unspecified, so float32 gets a length-scaled absolute tolerance.
func floatTolerances(typ par.DataType, n int) (abs, rel float64) {
	if typ == par.Float32 {
		return 2e-4 * float64(n+1), 1e-2
	}
	return 1e-9 * float64(n+1), 1e-9
}

func compareResult(t *harness.T, idx int, op par.ReduceOperand,
	got, want interface{}, n int) {
	abs, rel := floatTolerances(op.Type, n)

	switch w := want.(type) {
	case float32:
		g, ok := got.(float32)
		if !ok {
			t.Errorf("operand %d (%s %s): result type %T, want float32", idx, op.Op, op.Type, got)
			return
		}
		if !scalar.EqualWithinAbsOrRel(float64(g), float64(w), abs, rel) {
			t.Errorf("operand %d (%s %s): got %v, want %v", idx, op.Op, op.Type, g, w)
		}
	case float64:
		g, ok := got.(float64)
		if !ok {
			t.Errorf("operand %d (%s %s): result type %T, want float64", idx, op.Op, op.Type, got)
			return
		}
		if !scalar.EqualWithinAbsOrRel(g, w, abs, rel) {
			t.Errorf("operand %d (%s %s): got %v, want %v", idx, op.Op, op.Type, g, w)
		}
	case int32:
		if got != want {
			t.Errorf("operand %d (%s %s): got %v, want %v", idx, op.Op, op.Type, got, want)
		}
	case int64:
		if got != want {
			t.Errorf("operand %d (%s %s): got %v, want %v", idx, op.Op, op.Type, got, want)
		}
	case []float32:
		g, ok := got.([]float32)
		if !ok || len(g) != len(w) {
			t.Errorf("operand %d: span result %T/%d, want []float32/%d", idx, got, lenOf(got), len(w))
			return
		}
		for s := range w {
			if !scalar.EqualWithinAbsOrRel(float64(g[s]), float64(w[s]), abs, rel) {
				t.Errorf("operand %d span[%d]: got %v, want %v", idx, s, g[s], w[s])
			}
		}
	case []float64:
		g, ok := got.([]float64)
		if !ok || len(g) != len(w) {
			t.Errorf("operand %d: span result %T/%d, want []float64/%d", idx, got, lenOf(got), len(w))
			return
		}
		for s := range w {
			if !scalar.EqualWithinAbsOrRel(g[s], w[s], abs, rel) {
				t.Errorf("operand %d span[%d]: got %v, want %v", idx, s, g[s], w[s])
			}
		}
	case []int32:
		g, ok := got.([]int32)
		if !ok || len(g) != len(w) {
			t.Errorf("operand %d: span result %T/%d, want []int32/%d", idx, got, lenOf(got), len(w))
			return
		}
		for s := range w {
			if g[s] != w[s] {
				t.Errorf("operand %d span[%d]: got %v, want %v", idx, s, g[s], w[s])
			}
		}
	case []int64:
		g, ok := got.([]int64)
		if !ok || len(g) != len(w) {
			t.Errorf("operand %d: span result %T/%d, want []int64/%d", idx, got, lenOf(got), len(w))
			return
		}
		for s := range w {
			if g[s] != w[s] {
				t.Errorf("operand %d span[%d]: got %v, want %v", idx, s, g[s], w[s])
			}
		}
	default:
		t.Fatalf("operand %d: unhandled reference type %T", idx, want)
	}
}

func lenOf(v interface{}) int {
	switch s := v.(type) {
	case []float32:
		return len(s)
	case []float64:
		return len(s)
	case []int32:
		return len(s)
	case []int64:
		return len(s)
	default:
		return -1
	}
}

// makeOperand builds a deterministic input stream shaped for the operator:
// products draw values near one (or mostly-one integers) so references do
// not overflow, sums draw positive values to avoid cancellation noise in
// float32 tolerances, and bitwise ops draw raw patterns.
func makeOperand(op par.ReduceOp, typ par.DataType, n int, seed uint32) par.ReduceOperand {
	rng := minstd.New(seed)
	out := par.ReduceOperand{Op: op, Type: typ}

	switch typ {
	case par.Float32:
		data := make([]float32, n)
		for i := range data {
			data[i] = float32(floatSample(op, rng))
		}
		out.Data = data
	case par.Float64:
		data := make([]float64, n)
		for i := range data {
			data[i] = floatSample(op, rng)
		}
		out.Data = data
	case par.INT32:
		data := make([]int32, n)
		for i := range data {
			data[i] = int32(intSample(op, rng))
		}
		out.Data = data
	case par.INT64:
		data := make([]int64, n)
		for i := range data {
			data[i] = intSample(op, rng)
		}
		out.Data = data
	}
	return out
}

func floatSample(op par.ReduceOp, rng *minstd.Rand) float64 {
	u := float64(rng.Next()) / float64(minstd.Max) // (0, 1]
	switch op {
	case par.ReduceProd:
		return 0.999 + 0.002*u
	case par.ReduceSum:
		return u
	default:
		return 200*u - 100
	}
}

func intSample(op par.ReduceOp, rng *minstd.Rand) int64 {
	v := rng.Next()
	switch op {
	case par.ReduceProd:
		// Mostly ones with sparse twos keeps products in range.
		if v%127 == 0 {
			return 2
		}
		return 1
	case par.ReduceSum, par.ReduceMin, par.ReduceMax:
		return int64(v%2001) - 1000
	default:
		// Bitwise ops take raw 31-bit patterns.
		return int64(v)
	}
}
