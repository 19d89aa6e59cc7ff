package par

import "fmt"

// Aspect identifies a device capability. The set and canonical order of
// aspects is fixed by the standard; selectors, generators and backends all
// rely on this ordering.
type Aspect int

const (
	AspectCPU Aspect = iota
	AspectGPU
	AspectAccelerator
	AspectCustom
	AspectHostDebuggable
	AspectFP16
	AspectFP64
	AspectAtomic64
	AspectImage
	AspectOnlineCompiler
	AspectOnlineLinker
	AspectQueueProfiling
	AspectUSMDeviceAllocations
	AspectUSMHostAllocations
	AspectUSMAtomicHostAllocations
	AspectUSMSharedAllocations
	AspectUSMAtomicSharedAllocations
	AspectUSMSystemAllocations
	AspectEmulated

	numAspects
)

var aspectNames = [numAspects]string{
	AspectCPU:                        "cpu",
	AspectGPU:                        "gpu",
	AspectAccelerator:                "accelerator",
	AspectCustom:                     "custom",
	AspectHostDebuggable:             "host_debuggable",
	AspectFP16:                       "fp16",
	AspectFP64:                       "fp64",
	AspectAtomic64:                   "atomic64",
	AspectImage:                      "image",
	AspectOnlineCompiler:             "online_compiler",
	AspectOnlineLinker:               "online_linker",
	AspectQueueProfiling:             "queue_profiling",
	AspectUSMDeviceAllocations:       "usm_device_allocations",
	AspectUSMHostAllocations:         "usm_host_allocations",
	AspectUSMAtomicHostAllocations:   "usm_atomic_host_allocations",
	AspectUSMSharedAllocations:       "usm_shared_allocations",
	AspectUSMAtomicSharedAllocations: "usm_atomic_shared_allocations",
	AspectUSMSystemAllocations:       "usm_system_allocations",
	AspectEmulated:                   "emulated",
}

// AllAspects returns the full aspect list in canonical order. The returned
// slice is a fresh copy; callers may reorder or truncate it.
func AllAspects() []Aspect {
	aspects := make([]Aspect, numAspects)
	for i := range aspects {
		aspects[i] = Aspect(i)
	}
	return aspects
}

// NumAspects returns the number of defined aspects.
func NumAspects() int {
	return int(numAspects)
}

func (a Aspect) String() string {
	if a < 0 || a >= numAspects {
		return fmt.Sprintf("aspect(%d)", int(a))
	}
	return aspectNames[a]
}

// ParseAspect maps a canonical aspect name back to its Aspect value.
func ParseAspect(name string) (Aspect, error) {
	for i, n := range aspectNames {
		if n == name {
			return Aspect(i), nil
		}
	}
	return 0, &Error{Code: ErrcInvalid, Op: "ParseAspect",
		Message: fmt.Sprintf("unknown aspect %q", name)}
}

// ContainsAspect reports whether list contains a.
func ContainsAspect(list []Aspect, a Aspect) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}
