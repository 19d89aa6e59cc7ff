package occa

import (
	"fmt"
	"strings"

	"github.com/openpar/cts/par"
)

// cType maps a par data type to its OKL declaration type.
func cType(t par.DataType) string {
	switch t {
	case par.Float32:
		return "float"
	case par.Float64:
		return "double"
	case par.INT32:
		return "int"
	case par.INT64:
		return "long long"
	default:
		return "double"
	}
}

func typeSize(t par.DataType) int64 {
	switch t {
	case par.Float32, par.INT32:
		return 4
	default:
		return 8
	}
}

// identLiteral is the operator identity as an OKL expression. Partial
// accumulators start from the identity so empty blocks fold away; the caller
// applies Init semantics on the host afterwards.
func identLiteral(op par.ReduceOp, t par.DataType) string {
	if t.Float() {
		suffix := ""
		if t == par.Float32 {
			suffix = "f"
		}
		switch op {
		case par.ReduceSum:
			return "0.0" + suffix
		case par.ReduceProd:
			return "1.0" + suffix
		case par.ReduceMin:
			return "INFINITY"
		case par.ReduceMax:
			return "-INFINITY"
		}
		return "0.0" + suffix
	}

	suffix := ""
	if t == par.INT64 {
		suffix = "LL"
	}
	switch op {
	case par.ReduceSum, par.ReduceBitOr, par.ReduceBitXor:
		return "0" + suffix
	case par.ReduceProd:
		return "1" + suffix
	case par.ReduceMin:
		if t == par.INT32 {
			return "2147483647"
		}
		return "9223372036854775807LL"
	case par.ReduceMax:
		if t == par.INT32 {
			return "(-2147483647 - 1)"
		}
		return "(-9223372036854775807LL - 1LL)"
	case par.ReduceBitAnd:
		return "-1" + suffix
	}
	return "0" + suffix
}

// combineExpr renders one application of the operator.
func combineExpr(op par.ReduceOp, a, b string) string {
	switch op {
	case par.ReduceSum:
		return fmt.Sprintf("(%s) + (%s)", a, b)
	case par.ReduceProd:
		return fmt.Sprintf("(%s) * (%s)", a, b)
	case par.ReduceMin:
		return fmt.Sprintf("((%s) < (%s) ? (%s) : (%s))", a, b, a, b)
	case par.ReduceMax:
		return fmt.Sprintf("((%s) > (%s) ? (%s) : (%s))", a, b, a, b)
	case par.ReduceBitAnd:
		return fmt.Sprintf("(%s) & (%s)", a, b)
	case par.ReduceBitOr:
		return fmt.Sprintf("(%s) | (%s)", a, b)
	case par.ReduceBitXor:
		return fmt.Sprintf("(%s) ^ (%s)", a, b)
	default:
		return a
	}
}

// generateKernelSource emits one OKL kernel that evaluates every operand in
// a single launch. Each block accumulates a grid-strided slice of the index
// space into shared scratch, then thread 0 folds the scratch into per-block
// partials. The host finishes the fold across blocks.
func generateKernelSource(ops []par.ReduceOperand, n, block, nblocks int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("#define N %d\n", n))
	sb.WriteString(fmt.Sprintf("#define BLOCK %d\n", block))
	sb.WriteString(fmt.Sprintf("#define NBLOCKS %d\n\n", nblocks))

	// Signature: one input and one partials buffer per operand.
	params := make([]string, 0, 2*len(ops))
	for i, op := range ops {
		params = append(params,
			fmt.Sprintf("const %s* in%d", cType(op.Type), i),
			fmt.Sprintf("%s* partial%d", cType(op.Type), i))
	}
	sb.WriteString("@kernel void multiReduce(\n\t")
	sb.WriteString(strings.Join(params, ",\n\t"))
	sb.WriteString("\n) {\n")

	sb.WriteString("\tfor (int b = 0; b < NBLOCKS; ++b; @outer) {\n")
	for i, op := range ops {
		sb.WriteString(fmt.Sprintf("\t\t@shared %s scratch%d[%d];\n",
			cType(op.Type), i, block*op.SpanLen()))
	}

	// Pass 1: every thread folds its grid-strided elements.
	sb.WriteString("\n\t\tfor (int t = 0; t < BLOCK; ++t; @inner) {\n")
	for i, op := range ops {
		span := op.SpanLen()
		ct := cType(op.Type)
		ident := identLiteral(op.Op, op.Type)
		sb.WriteString(fmt.Sprintf("\t\t\t%s acc%d[%d];\n", ct, i, span))
		sb.WriteString(fmt.Sprintf("\t\t\tfor (int s = 0; s < %d; ++s) acc%d[s] = %s;\n",
			span, i, ident))
		sb.WriteString("\t\t\tfor (int i = b * BLOCK + t; i < N; i += NBLOCKS * BLOCK) {\n")
		sb.WriteString(fmt.Sprintf("\t\t\t\tacc%d[i %% %d] = %s;\n",
			i, span, combineExpr(op.Op, fmt.Sprintf("acc%d[i %% %d]", i, span),
				fmt.Sprintf("in%d[i]", i))))
		sb.WriteString("\t\t\t}\n")
		sb.WriteString(fmt.Sprintf("\t\t\tfor (int s = 0; s < %d; ++s) scratch%d[t * %d + s] = acc%d[s];\n",
			span, i, span, i))
	}
	sb.WriteString("\t\t}\n")

	// Pass 2: thread 0 folds the block scratch into partials.
	sb.WriteString("\n\t\tfor (int t = 0; t < BLOCK; ++t; @inner) {\n")
	sb.WriteString("\t\t\tif (t == 0) {\n")
	for i, op := range ops {
		span := op.SpanLen()
		ct := cType(op.Type)
		ident := identLiteral(op.Op, op.Type)
		sb.WriteString(fmt.Sprintf("\t\t\t\tfor (int s = 0; s < %d; ++s) {\n", span))
		sb.WriteString(fmt.Sprintf("\t\t\t\t\t%s acc = %s;\n", ct, ident))
		sb.WriteString(fmt.Sprintf("\t\t\t\t\tfor (int j = 0; j < BLOCK; ++j) acc = %s;\n",
			combineExpr(op.Op, "acc", fmt.Sprintf("scratch%d[j * %d + s]", i, span))))
		sb.WriteString(fmt.Sprintf("\t\t\t\t\tpartial%d[b * %d + s] = acc;\n", i, span))
		sb.WriteString("\t\t\t\t}\n")
	}
	sb.WriteString("\t\t\t}\n")
	sb.WriteString("\t\t}\n")
	sb.WriteString("\t}\n")
	sb.WriteString("}\n")

	return sb.String()
}
