package par

// Selector scores a device. A negative score rejects the device; selection
// picks a device with the highest non-negative score. Selectors must be pure:
// the same device always gets the same score.
type Selector func(Device) int

// aspectScore is the scoring contract shared by every aspect selector
// construction form: 1 when the device has all accepted aspects and none of
// the denied ones, -1 otherwise.
func aspectScore(d Device, accept, deny []Aspect) int {
	for _, a := range accept {
		if !d.Has(a) {
			return -1
		}
	}
	for _, a := range deny {
		if d.Has(a) {
			return -1
		}
	}
	return 1
}

// AspectSelector returns a selector that requires every aspect in accept.
// An empty accept list matches any device.
func AspectSelector(accept []Aspect) Selector {
	accept = cloneAspects(accept)
	return func(d Device) int {
		return aspectScore(d, accept, nil)
	}
}

// AspectSelectorDeny returns a selector that requires every aspect in accept
// and rejects devices holding any aspect in deny.
func AspectSelectorDeny(accept, deny []Aspect) Selector {
	accept = cloneAspects(accept)
	deny = cloneAspects(deny)
	return func(d Device) int {
		return aspectScore(d, accept, deny)
	}
}

// AspectSelectorOf is the variadic form of AspectSelector.
func AspectSelectorOf(aspects ...Aspect) Selector {
	return AspectSelector(aspects)
}

// SelectorBuilder accumulates accept and deny lists; it is the fourth
// construction form for aspect selectors.
type SelectorBuilder struct {
	accept []Aspect
	deny   []Aspect
}

// RequireAspects starts a builder with the given required aspects.
func RequireAspects(aspects ...Aspect) *SelectorBuilder {
	return &SelectorBuilder{accept: cloneAspects(aspects)}
}

// DenyAspects adds denied aspects to the builder.
func (b *SelectorBuilder) DenyAspects(aspects ...Aspect) *SelectorBuilder {
	b.deny = append(b.deny, aspects...)
	return b
}

// Selector finalizes the builder.
func (b *SelectorBuilder) Selector() Selector {
	return AspectSelectorDeny(b.accept, b.deny)
}

// SelectVia is the canonical selection routine. It scores every device and
// returns the highest-scoring device with a non-negative score, preferring
// the earliest device on ties. When no device qualifies it returns an
// ErrcRuntime coded error, as the standard requires.
func SelectVia(devices []Device, sel Selector) (Device, error) {
	var best Device
	bestScore := -1
	for _, d := range devices {
		score := sel(d)
		if score < 0 {
			continue
		}
		if best == nil || score > bestScore {
			best = d
			bestScore = score
		}
	}
	if best == nil {
		return nil, &Error{Code: ErrcRuntime, Op: "SelectVia",
			Message: "no device satisfies the selector"}
	}
	return best, nil
}

func cloneAspects(list []Aspect) []Aspect {
	if len(list) == 0 {
		return nil
	}
	out := make([]Aspect, len(list))
	copy(out, list)
	return out
}
