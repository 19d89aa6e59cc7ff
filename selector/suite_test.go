package selector

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openpar/cts/harness"
	"github.com/openpar/cts/par"
	"github.com/openpar/cts/selgen"
)

// ----------------------------------------------------------------------------
// Fake runtime used to exercise the suite logic without a live backend.
// ----------------------------------------------------------------------------

type fakeDevice struct {
	name     string
	aspects  map[par.Aspect]bool
	platform *fakePlatform
}

func (d *fakeDevice) Name() string           { return d.name }
func (d *fakeDevice) Has(a par.Aspect) bool  { return d.aspects[a] }
func (d *fakeDevice) Platform() par.Platform { return d.platform }

type fakePlatform struct {
	name    string
	devices []par.Device
}

func (p *fakePlatform) Name() string          { return p.name }
func (p *fakePlatform) Devices() []par.Device { return p.devices }
func (p *fakePlatform) Has(a par.Aspect) bool { return par.PlatformHasAll(p, a) }

type fakeQueue struct {
	device par.Device
}

func (q *fakeQueue) Device() par.Device { return q.device }
func (q *fakeQueue) MultiReduce(ops []par.ReduceOperand) ([]interface{}, error) {
	return nil, &par.Error{Code: par.ErrcFeatureNotSupported, Op: "MultiReduce",
		Message: "not supported by selector test fake"}
}

type fakeRuntime struct {
	devices []par.Device
}

func (rt *fakeRuntime) Name() string          { return "fake" }
func (rt *fakeRuntime) Devices() []par.Device { return rt.devices }

func (rt *fakeRuntime) Select(sel par.Selector) (par.Device, error) {
	return par.SelectVia(rt.devices, sel)
}

func (rt *fakeRuntime) NewQueue(sel par.Selector) (par.Queue, error) {
	dev, err := rt.Select(sel)
	if err != nil {
		return nil, err
	}
	return &fakeQueue{device: dev}, nil
}

func aspects(list ...par.Aspect) map[par.Aspect]bool {
	m := make(map[par.Aspect]bool, len(list))
	for _, a := range list {
		m[a] = true
	}
	return m
}

// newFakeRuntime builds a small mixed population: a CPU device with host
// aspects, a GPU device, and an emulated accelerator.
func newFakeRuntime() *fakeRuntime {
	cpuPlat := &fakePlatform{name: "host"}
	gpuPlat := &fakePlatform{name: "discrete"}

	cpu := &fakeDevice{
		name: "cpu0",
		aspects: aspects(par.AspectCPU, par.AspectFP16, par.AspectFP64,
			par.AspectAtomic64, par.AspectHostDebuggable,
			par.AspectOnlineCompiler, par.AspectOnlineLinker,
			par.AspectUSMHostAllocations, par.AspectUSMSharedAllocations,
			par.AspectUSMSystemAllocations),
		platform: cpuPlat,
	}
	gpu := &fakeDevice{
		name: "gpu0",
		aspects: aspects(par.AspectGPU, par.AspectFP64, par.AspectAtomic64,
			par.AspectImage, par.AspectQueueProfiling,
			par.AspectUSMDeviceAllocations),
		platform: gpuPlat,
	}
	accel := &fakeDevice{
		name:     "accel0",
		aspects:  aspects(par.AspectAccelerator, par.AspectEmulated),
		platform: gpuPlat,
	}
	cpuPlat.devices = []par.Device{cpu}
	gpuPlat.devices = []par.Device{gpu, accel}

	return &fakeRuntime{devices: []par.Device{cpu, gpu, accel}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ----------------------------------------------------------------------------
// Oracle tests
// ----------------------------------------------------------------------------

func TestDeviceExists(t *testing.T) {
	rt := newFakeRuntime()

	testCases := []struct {
		name   string
		accept []par.Aspect
		deny   []par.Aspect
		want   bool
	}{
		{"cpu_exists", []par.Aspect{par.AspectCPU}, nil, true},
		{"gpu_exists", []par.Aspect{par.AspectGPU}, nil, true},
		{"custom_missing", []par.Aspect{par.AspectCustom}, nil, false},
		{"cpu_and_gpu_never_together",
			[]par.Aspect{par.AspectCPU, par.AspectGPU}, nil, false},
		{"gpu_without_image",
			[]par.Aspect{par.AspectGPU}, []par.Aspect{par.AspectImage}, false},
		{"fp64_without_image",
			[]par.Aspect{par.AspectFP64}, []par.Aspect{par.AspectImage}, true},
		{"empty_accept", nil, nil, true},
		{"deny_everything_still_accel",
			nil, []par.Aspect{par.AspectCPU, par.AspectGPU}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeviceExists(rt.Devices(), tc.accept, tc.deny)
			if got != tc.want {
				t.Errorf("DeviceExists(%v, %v) = %v, want %v",
					tc.accept, tc.deny, got, tc.want)
			}
		})
	}
}

func TestDeviceExists_EmptyPopulation(t *testing.T) {
	if DeviceExists(nil, nil, nil) {
		t.Error("no devices can conform in an empty population")
	}
}

// ----------------------------------------------------------------------------
// Suite self-tests against the fake runtime
// ----------------------------------------------------------------------------

func TestBuildSuite_CaseCount(t *testing.T) {
	rt := newFakeRuntime()
	s := BuildSuite(rt, Options{RandomCount: 25}, quietLogger())

	// no_aspects + 19 singles + C(19,2) pairs + 17 prefix subsets + randoms.
	want := 1 + 19 + 171 + 17 + 25
	require.Len(t, s.Cases(), want)
}

func TestBuildSuite_ConformingRuntimePasses(t *testing.T) {
	rt := newFakeRuntime()
	s := BuildSuite(rt, Options{RandomCount: 25}, quietLogger())

	results := s.Run(context.Background())
	_, fail, skip := harness.Summarize(results)
	if fail != 0 || skip != 0 {
		for _, r := range results {
			if r.Status != harness.StatusPass {
				t.Logf("%s %s: %v", r.Status, r.Case, r.Messages)
			}
		}
		t.Fatalf("conforming fake runtime: %d failures, %d skips", fail, skip)
	}
}

func TestBuildSuite_EmptyRuntimePasses(t *testing.T) {
	// With no devices every case takes the error path, which must still pass
	// as long as the runtime reports errc runtime.
	rt := &fakeRuntime{}
	s := BuildSuite(rt, Options{RandomCount: 10}, quietLogger())

	results := s.Run(context.Background())
	_, fail, _ := harness.Summarize(results)
	if fail != 0 {
		t.Fatalf("empty runtime should pass the error paths, got %d failures", fail)
	}
}

// ----------------------------------------------------------------------------
// Negative tests: broken runtimes must be caught
// ----------------------------------------------------------------------------

// greedyRuntime ignores the selector and always returns its first device.
type greedyRuntime struct {
	fakeRuntime
}

func (rt *greedyRuntime) Select(sel par.Selector) (par.Device, error) {
	return rt.devices[0], nil
}

func (rt *greedyRuntime) NewQueue(sel par.Selector) (par.Queue, error) {
	return &fakeQueue{device: rt.devices[0]}, nil
}

func TestCheckAspectSelector_CatchesNonConformingSelection(t *testing.T) {
	rt := &greedyRuntime{fakeRuntime: *newFakeRuntime()} // first device is cpu0

	ht := &harness.T{}
	CheckAspectSelector(ht, rt, selgen.Case{Accept: []par.Aspect{par.AspectGPU}})
	if !ht.Failed() {
		t.Error("greedy runtime returned a CPU device for a GPU selector; case should fail")
	}
}

// wrongCodeRuntime fails selection with the wrong error code.
type wrongCodeRuntime struct {
	fakeRuntime
}

func (rt *wrongCodeRuntime) Select(sel par.Selector) (par.Device, error) {
	return nil, &par.Error{Code: par.ErrcKernel, Op: "Select", Message: "wrong code"}
}

func (rt *wrongCodeRuntime) NewQueue(sel par.Selector) (par.Queue, error) {
	_, err := rt.Select(sel)
	return nil, err
}

func TestCheckAspectSelector_CatchesWrongErrorCode(t *testing.T) {
	rt := &wrongCodeRuntime{}

	ht := &harness.T{}
	CheckAspectSelector(ht, rt, selgen.Case{Accept: []par.Aspect{par.AspectCustom}})
	if !ht.Failed() {
		t.Error("wrong error code must fail the case")
	}
}
