package par

// Device is a single compute device exposed by the implementation under test.
type Device interface {
	Name() string
	// Has reports whether the device supports the given aspect.
	Has(a Aspect) bool
	Platform() Platform
}

// Platform groups devices that share a driver stack. A platform has an
// aspect iff every one of its devices has it.
type Platform interface {
	Name() string
	Devices() []Device
	Has(a Aspect) bool
}

// Queue issues work to one device.
type Queue interface {
	Device() Device
	// MultiReduce executes every operand in a single kernel launch over a
	// common index space. Result i corresponds to ops[i]: a scalar of the
	// operand's type, or a slice of length Span for span operands.
	MultiReduce(ops []ReduceOperand) ([]interface{}, error)
}

// Runtime is the entry point an implementation under test provides.
type Runtime interface {
	Name() string
	// Devices returns every device the runtime can enumerate.
	Devices() []Device
	// Select returns the best device for the selector, or an ErrcRuntime
	// coded error when no device scores non-negative.
	Select(sel Selector) (Device, error)
	// NewQueue selects a device and opens a queue on it.
	NewQueue(sel Selector) (Queue, error)
}

// PlatformHasAll is the reference semantics for Platform.Has: true iff all
// devices on the platform have the aspect. Backends may delegate to it.
func PlatformHasAll(p Platform, a Aspect) bool {
	devices := p.Devices()
	if len(devices) == 0 {
		return false
	}
	for _, d := range devices {
		if !d.Has(a) {
			return false
		}
	}
	return true
}
