package occa

import (
	"golang.org/x/sys/cpu"

	"github.com/openpar/cts/par"
)

// hostFP16 reports whether the host CPU can do native half-precision work.
// ARM needs both the scalar and SIMD half-precision extensions; on x86 the
// AVX-512 foundation set brings the fp16 conversion paths along.
func hostFP16() bool {
	return (cpu.ARM64.HasFPHP && cpu.ARM64.HasASIMDHP) || cpu.X86.HasAVX512F
}

// aspectsForMode derives the aspect set for an OCCA mode. OCCA does not
// surface per-device capability flags, so the mapping is by mode family:
// host modes get the full host allocation model, offload modes get device
// allocations and profiling. No OCCA device reports custom, image or
// emulated.
func aspectsForMode(mode string) map[par.Aspect]bool {
	aspects := make(map[par.Aspect]bool)
	switch mode {
	case "Serial", "OpenMP":
		aspects[par.AspectCPU] = true
		aspects[par.AspectHostDebuggable] = true
		aspects[par.AspectFP64] = true
		aspects[par.AspectAtomic64] = true
		aspects[par.AspectOnlineCompiler] = true
		aspects[par.AspectOnlineLinker] = true
		aspects[par.AspectUSMHostAllocations] = true
		aspects[par.AspectUSMAtomicHostAllocations] = true
		aspects[par.AspectUSMSharedAllocations] = true
		aspects[par.AspectUSMAtomicSharedAllocations] = true
		aspects[par.AspectUSMSystemAllocations] = true
		if hostFP16() {
			aspects[par.AspectFP16] = true
		}
	case "CUDA":
		aspects[par.AspectGPU] = true
		aspects[par.AspectFP16] = true
		aspects[par.AspectFP64] = true
		aspects[par.AspectAtomic64] = true
		aspects[par.AspectOnlineCompiler] = true
		aspects[par.AspectOnlineLinker] = true
		aspects[par.AspectQueueProfiling] = true
		aspects[par.AspectUSMDeviceAllocations] = true
		aspects[par.AspectUSMSharedAllocations] = true
	case "OpenCL":
		aspects[par.AspectGPU] = true
		aspects[par.AspectFP64] = true
		aspects[par.AspectOnlineCompiler] = true
		aspects[par.AspectOnlineLinker] = true
		aspects[par.AspectQueueProfiling] = true
		aspects[par.AspectUSMDeviceAllocations] = true
	}
	return aspects
}
