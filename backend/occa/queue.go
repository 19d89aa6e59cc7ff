package occa

import (
	"unsafe"

	"github.com/notargets/gocca"
	"github.com/zeebo/xxh3"

	"github.com/openpar/cts/par"
)

const (
	reduceBlock  = 256
	maxNumBlocks = 64
)

// Queue executes multi-reduction launches on one wrapped OCCA device. Built
// kernels are cached by source hash so repeated launches with the same
// operand shape reuse the compiled binary.
type Queue struct {
	device  *Device
	kernels map[uint64]*gocca.OCCAKernel
}

func (q *Queue) Device() par.Device { return q.device }

// Free releases every cached kernel. The device itself is owned by the
// runtime.
func (q *Queue) Free() {
	for _, k := range q.kernels {
		k.Free()
	}
	q.kernels = nil
}

// MultiReduce runs every operand inside a single kernel launch. The kernel
// writes per-block partials for each operand; the host folds the partials and
// applies the operand's initial value.
func (q *Queue) MultiReduce(ops []par.ReduceOperand) ([]interface{}, error) {
	n, err := par.ValidateOperands(ops)
	if err != nil {
		return nil, err
	}

	results := make([]interface{}, len(ops))

	// An empty index space touches no elements: every result is the
	// operand's initial value. No launch needed.
	if n == 0 {
		for i, op := range ops {
			results[i] = initOnlyResult(op)
		}
		return results, nil
	}

	nblocks := (n + reduceBlock - 1) / reduceBlock
	if nblocks > maxNumBlocks {
		nblocks = maxNumBlocks
	}

	source := generateKernelSource(ops, n, reduceBlock, nblocks)
	kernel, err := q.kernelFor(source)
	if err != nil {
		return nil, err
	}

	var owned []*gocca.OCCAMemory
	defer func() {
		for _, m := range owned {
			m.Free()
		}
	}()

	args := make([]interface{}, 0, 2*len(ops))
	partials := make([]*gocca.OCCAMemory, len(ops))
	for i, op := range ops {
		inMem := uploadInput(q.device.occa, op)
		owned = append(owned, inMem)

		pBytes := int64(nblocks*op.SpanLen()) * typeSize(op.Type)
		pMem := q.device.occa.Malloc(pBytes, nil, nil)
		owned = append(owned, pMem)
		partials[i] = pMem

		args = append(args, inMem, pMem)
	}

	if err := kernel.RunWithArgs(args...); err != nil {
		return nil, &par.Error{Code: par.ErrcKernel, Op: "MultiReduce",
			Message: "kernel launch failed", Err: err}
	}
	q.device.occa.Finish()

	for i, op := range ops {
		results[i] = foldPartials(op, partials[i], nblocks)
	}
	return results, nil
}

// kernelFor builds (or reuses) the kernel for one generated source. OpenMP
// needs an explicit -O3; OCCA does not pass default compiler flags for that
// mode.
func (q *Queue) kernelFor(source string) (*gocca.OCCAKernel, error) {
	key := xxh3.HashString(source)
	if k, ok := q.kernels[key]; ok {
		return k, nil
	}

	var kernel *gocca.OCCAKernel
	var err error
	if q.device.occa.Mode() == "OpenMP" {
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = q.device.occa.BuildKernelFromString(source, "multiReduce", props)
	} else {
		kernel, err = q.device.occa.BuildKernelFromString(source, "multiReduce", nil)
	}
	if err != nil {
		return nil, &par.Error{Code: par.ErrcKernel, Op: "MultiReduce",
			Message: "kernel build failed", Err: err}
	}

	if q.kernels == nil {
		q.kernels = make(map[uint64]*gocca.OCCAKernel)
	}
	q.kernels[key] = kernel
	return kernel, nil
}

// uploadInput copies the operand's input stream to the device. Operands are
// validated before upload, so the type switch is exhaustive.
func uploadInput(dev *gocca.OCCADevice, op par.ReduceOperand) *gocca.OCCAMemory {
	size := typeSize(op.Type)
	switch v := op.Data.(type) {
	case []float32:
		return dev.Malloc(int64(len(v))*size, unsafe.Pointer(&v[0]), nil)
	case []float64:
		return dev.Malloc(int64(len(v))*size, unsafe.Pointer(&v[0]), nil)
	case []int32:
		return dev.Malloc(int64(len(v))*size, unsafe.Pointer(&v[0]), nil)
	default:
		v := op.Data.([]int64)
		return dev.Malloc(int64(len(v))*size, unsafe.Pointer(&v[0]), nil)
	}
}

// foldPartials reads back one operand's per-block partials and finishes the
// reduction on the host: fold across blocks from the identity, then combine
// with the operand's initial value.
func foldPartials(op par.ReduceOperand, mem *gocca.OCCAMemory, nblocks int) interface{} {
	span := op.SpanLen()
	count := nblocks * span
	bytes := int64(count) * typeSize(op.Type)

	if op.Type.Float() {
		acc := make([]float64, span)
		for s := range acc {
			acc[s] = par.IdentityFloat64(op.Op)
		}
		switch op.Type {
		case par.Float32:
			buf := make([]float32, count)
			mem.CopyTo(unsafe.Pointer(&buf[0]), bytes)
			for i, v := range buf {
				acc[i%span] = foldFloat(op.Op, acc[i%span], float64(v))
			}
		default:
			buf := make([]float64, count)
			mem.CopyTo(unsafe.Pointer(&buf[0]), bytes)
			for i, v := range buf {
				acc[i%span] = foldFloat(op.Op, acc[i%span], v)
			}
		}
		init := floatInit(op)
		for s := range acc {
			acc[s] = foldFloat(op.Op, init, acc[s])
		}
		return narrowFloats(op.Type, acc)
	}

	acc := make([]int64, span)
	for s := range acc {
		acc[s] = par.IdentityInt64(op.Op, op.Type)
	}
	switch op.Type {
	case par.INT32:
		buf := make([]int32, count)
		mem.CopyTo(unsafe.Pointer(&buf[0]), bytes)
		for i, v := range buf {
			acc[i%span] = foldInt(op.Op, acc[i%span], int64(v))
		}
	default:
		buf := make([]int64, count)
		mem.CopyTo(unsafe.Pointer(&buf[0]), bytes)
		for i, v := range buf {
			acc[i%span] = foldInt(op.Op, acc[i%span], v)
		}
	}
	init := intInit(op)
	for s := range acc {
		acc[s] = foldInt(op.Op, init, acc[s])
	}
	return narrowInts(op.Type, acc)
}

// initOnlyResult resolves the result of reducing an empty stream.
func initOnlyResult(op par.ReduceOperand) interface{} {
	span := op.SpanLen()
	if op.Type.Float() {
		acc := make([]float64, span)
		init := floatInit(op)
		for s := range acc {
			acc[s] = init
		}
		return narrowFloats(op.Type, acc)
	}
	acc := make([]int64, span)
	init := intInit(op)
	for s := range acc {
		acc[s] = init
	}
	return narrowInts(op.Type, acc)
}

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

func intInit(op par.ReduceOperand) int64 {
	if op.InitToIdentity || op.Init == nil {
		return par.IdentityInt64(op.Op, op.Type)
	}
	switch v := op.Init.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
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
		if b < a {
			return b
		}
		return a
	default: // max
		if b > a {
			return b
		}
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
	default: // xor
		return a ^ b
	}
}

// narrowFloats shapes a float64 accumulator into the operand's result value:
// a scalar for span 1, a slice otherwise, in the operand's own type.
func narrowFloats(t par.DataType, acc []float64) interface{} {
	if t == par.Float64 {
		if len(acc) == 1 {
			return acc[0]
		}
		return acc
	}
	out := make([]float32, len(acc))
	for i, v := range acc {
		out[i] = float32(v)
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func narrowInts(t par.DataType, acc []int64) interface{} {
	if t == par.INT64 {
		if len(acc) == 1 {
			return acc[0]
		}
		return acc
	}
	out := make([]int32, len(acc))
	for i, v := range acc {
		out[i] = int32(v)
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
