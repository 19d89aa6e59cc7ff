// Package par defines the API surface of the parallel-compute standard that
// the conformance suite exercises: aspects, devices, selectors, error codes
// and the multi-reduction queue operation. Implementations under test plug in
// behind the Runtime, Device, Platform and Queue interfaces.
package par

import "fmt"

// Errc is a standard error code. Conforming implementations must report the
// code mandated for each failure; the suite asserts on codes, not messages.
type Errc int

const (
	ErrcSuccess Errc = iota
	ErrcRuntime
	ErrcKernel
	ErrcNDRange
	ErrcInvalid
	ErrcMemoryAllocation
	ErrcPlatform
	ErrcFeatureNotSupported
	ErrcBackendMismatch
)

func (c Errc) String() string {
	switch c {
	case ErrcSuccess:
		return "success"
	case ErrcRuntime:
		return "runtime"
	case ErrcKernel:
		return "kernel"
	case ErrcNDRange:
		return "nd_range"
	case ErrcInvalid:
		return "invalid"
	case ErrcMemoryAllocation:
		return "memory_allocation"
	case ErrcPlatform:
		return "platform"
	case ErrcFeatureNotSupported:
		return "feature_not_supported"
	case ErrcBackendMismatch:
		return "backend_mismatch"
	default:
		return "unknown"
	}
}

// Error is a coded error with the operation that produced it.
type Error struct {
	Code    Errc
	Op      string // Operation that failed
	Message string
	Err     error // Underlying error if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("par %s error in %s: %s (caused by: %v)",
			e.Code, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("par %s error in %s: %s", e.Code, e.Op, e.Message)
}

// Unwrap allows error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the Errc from err, or ErrcSuccess if err carries no code.
func CodeOf(err error) Errc {
	for err != nil {
		if pe, ok := err.(*Error); ok {
			return pe.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ErrcSuccess
		}
		err = u.Unwrap()
	}
	return ErrcSuccess
}

func invalidErr(op, format string, args ...interface{}) *Error {
	return &Error{Code: ErrcInvalid, Op: op, Message: fmt.Sprintf(format, args...)}
}
