// Package selector is the aspect-based device selection conformance suite.
// It generates accept/deny aspect combinations, decides with its own oracle
// whether the runtime under test holds a conforming device, and then asserts
// that every selector construction form agrees with the oracle.
package selector

import "github.com/openpar/cts/par"

// DeviceExists reports whether any device has every accepted aspect and none
// of the denied aspects. This is the suite's independent oracle; it never
// consults the runtime's selection machinery.
func DeviceExists(devices []par.Device, accept, deny []par.Aspect) bool {
	for _, dev := range devices {
		if deviceConforms(dev, accept, deny) {
			return true
		}
	}
	return false
}

func deviceConforms(dev par.Device, accept, deny []par.Aspect) bool {
	for _, a := range accept {
		if !dev.Has(a) {
			return false
		}
	}
	for _, a := range deny {
		if dev.Has(a) {
			return false
		}
	}
	return true
}
