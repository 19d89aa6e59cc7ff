package selector

import (
	"fmt"
	"log/slog"

	"github.com/openpar/cts/harness"
	"github.com/openpar/cts/par"
	"github.com/openpar/cts/selgen"
)

// Options tunes case generation. The zero value selects the standard run:
// all aspects, subsets from size 3, 100 random cases with seed 1.
type Options struct {
	Aspects        []par.Aspect
	SmallestSubset int
	RandomCount    int
	Seed           uint32
}

func (o Options) withDefaults() Options {
	if o.Aspects == nil {
		o.Aspects = par.AllAspects()
	}
	if o.SmallestSubset == 0 {
		o.SmallestSubset = 3
	}
	if o.RandomCount == 0 {
		o.RandomCount = 100
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	return o
}

// BuildSuite assembles the full selector conformance suite against rt.
func BuildSuite(rt par.Runtime, opts Options, logger *slog.Logger) *harness.Suite {
	opts = opts.withDefaults()
	s := harness.NewSuite("selector", logger)

	// All construction forms must accept empty aspect lists.
	s.Add("no_aspects", func(t *harness.T) {
		checkNoAspects(t, rt)
	})

	for _, c := range selgen.Singles(opts.Aspects) {
		addCase(s, rt, fmt.Sprintf("single/%s", c.Accept[0]), c)
	}
	for _, c := range selgen.Pairs(opts.Aspects) {
		addCase(s, rt, fmt.Sprintf("pair/%s+%s", c.Accept[0], c.Accept[1]), c)
	}
	for _, c := range selgen.PrefixSubsets(opts.Aspects, opts.SmallestSubset) {
		addCase(s, rt, fmt.Sprintf("subset/%d", len(c.Accept)), c)
	}
	for i, c := range selgen.RandomCases(opts.Aspects, opts.RandomCount, opts.Seed) {
		addCase(s, rt, fmt.Sprintf("random/%03d-%016x", i, c.Fingerprint()), c)
	}
	return s
}

func addCase(s *harness.Suite, rt par.Runtime, name string, c selgen.Case) {
	s.Add(name, func(t *harness.T) {
		t.Logf("%s", c.Label())
		CheckAspectSelector(t, rt, c)
	})
}

// checkNoAspects constructs every selector form with zero aspects. A
// zero-aspect selector accepts any device, so selection succeeds whenever the
// runtime has devices at all.
func checkNoAspects(t *harness.T, rt par.Runtime) {
	forms := map[string]par.Selector{
		"vector":      par.AspectSelector(nil),
		"vector_deny": par.AspectSelectorDeny(nil, nil),
		"variadic":    par.AspectSelectorOf(),
		"builder":     par.RequireAspects().Selector(),
	}
	hasDevices := len(rt.Devices()) > 0
	for name, sel := range forms {
		_, err := rt.Select(sel)
		if hasDevices && err != nil {
			t.Errorf("form %s: empty selector failed on a populated runtime: %v", name, err)
		}
		if !hasDevices && par.CodeOf(err) != par.ErrcRuntime {
			t.Errorf("form %s: empty runtime should fail with errc runtime, got %v", name, err)
		}
	}
}

// CheckAspectSelector verifies one generated case against all four selector
// construction forms. Forms without a deny parameter are checked against the
// accept list alone, mirroring the constructor set of the standard.
func CheckAspectSelector(t *harness.T, rt par.Runtime, c selgen.Case) {
	testSelector(t, rt, "vector", par.AspectSelector(c.Accept), c.Accept, nil)
	if len(c.Deny) > 0 {
		testSelector(t, rt, "vector_deny",
			par.AspectSelectorDeny(c.Accept, c.Deny), c.Accept, c.Deny)
	}
	testSelector(t, rt, "variadic", par.AspectSelectorOf(c.Accept...), c.Accept, nil)

	builder := par.RequireAspects(c.Accept...)
	if len(c.Deny) > 0 {
		builder.DenyAspects(c.Deny...)
		testSelector(t, rt, "builder", builder.Selector(), c.Accept, c.Deny)
	} else {
		testSelector(t, rt, "builder", builder.Selector(), c.Accept, nil)
	}
}

// testSelector routes to the accept-path or error-path assertions depending
// on whether the oracle finds a conforming device.
func testSelector(t *harness.T, rt par.Runtime, form string, sel par.Selector,
	accept, deny []par.Aspect) {
	if DeviceExists(rt.Devices(), accept, deny) {
		testSelectorAccept(t, rt, form, sel, accept)
		if len(deny) > 0 {
			testSelectorDeny(t, rt, form, sel, deny)
		}
	} else {
		checkSelectorError(t, rt, form, sel)
	}
}

// testSelectorAccept asserts the selected device, the queue's device and the
// device's platform all honor the accept list.
func testSelectorAccept(t *harness.T, rt par.Runtime, form string,
	sel par.Selector, accept []par.Aspect) {
	dev, err := rt.Select(sel)
	if err != nil {
		t.Fatalf("form %s: Select failed though a conforming device exists: %v", form, err)
	}
	for _, a := range accept {
		if !dev.Has(a) {
			t.Errorf("form %s: selected device %q lacks accepted aspect %s",
				form, dev.Name(), a)
		}
	}

	queue, err := rt.NewQueue(sel)
	if err != nil {
		t.Fatalf("form %s: NewQueue failed though a conforming device exists: %v", form, err)
	}
	for _, a := range accept {
		if !queue.Device().Has(a) {
			t.Errorf("form %s: queue device %q lacks accepted aspect %s",
				form, queue.Device().Name(), a)
		}
	}

	// Platform.Has must be answerable for every accepted aspect; the value
	// itself is unconstrained since sibling devices may lack the aspect.
	platform := dev.Platform()
	for _, a := range accept {
		_ = platform.Has(a)
	}
}

// testSelectorDeny asserts the denied aspects are absent from the selected
// device, the queue's device, and the platform. If all devices in a platform
// had a denied aspect the selected device would too, so the platform must not
// report it.
func testSelectorDeny(t *harness.T, rt par.Runtime, form string,
	sel par.Selector, deny []par.Aspect) {
	dev, err := rt.Select(sel)
	if err != nil {
		t.Fatalf("form %s: Select failed on deny check: %v", form, err)
	}
	for _, a := range deny {
		if dev.Has(a) {
			t.Errorf("form %s: selected device %q has denied aspect %s",
				form, dev.Name(), a)
		}
	}

	queue, err := rt.NewQueue(sel)
	if err != nil {
		t.Fatalf("form %s: NewQueue failed on deny check: %v", form, err)
	}
	for _, a := range deny {
		if queue.Device().Has(a) {
			t.Errorf("form %s: queue device %q has denied aspect %s",
				form, queue.Device().Name(), a)
		}
	}

	platform := dev.Platform()
	for _, a := range deny {
		if platform.Has(a) {
			t.Errorf("form %s: platform %q has denied aspect %s",
				form, platform.Name(), a)
		}
	}
}

// checkSelectorError asserts selection fails with the runtime error code when
// no conforming device exists.
func checkSelectorError(t *harness.T, rt par.Runtime, form string, sel par.Selector) {
	dev, err := rt.Select(sel)
	if err == nil {
		t.Errorf("form %s: selected device %q when none should conform", form, dev.Name())
		return
	}
	if code := par.CodeOf(err); code != par.ErrcRuntime {
		t.Errorf("form %s: expected errc runtime, got %s (%v)", form, code, err)
	}

	if _, err := rt.NewQueue(sel); err == nil {
		t.Errorf("form %s: NewQueue succeeded when no device should conform", form)
	} else if code := par.CodeOf(err); code != par.ErrcRuntime {
		t.Errorf("form %s: NewQueue expected errc runtime, got %s (%v)", form, code, err)
	}
}
