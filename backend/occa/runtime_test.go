package occa

import (
	"log/slog"
	"testing"

	"github.com/openpar/cts/par"
)

// newTestRuntime enumerates whatever OCCA modes initialize on this machine.
// Tests that need a live device skip when the population is empty.
func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := NewRuntime(nil, slog.New(slog.DiscardHandler))
	if len(rt.Devices()) == 0 {
		t.Skip("no OCCA device available")
	}
	t.Cleanup(rt.Free)
	return rt
}

func TestRuntime_Live_Enumeration(t *testing.T) {
	rt := newTestRuntime(t)

	for _, dev := range rt.Devices() {
		if dev.Name() == "" {
			t.Error("enumerated device has no name")
		}
		p := dev.Platform()
		if p == nil {
			t.Fatalf("device %s has no platform", dev.Name())
		}
		found := false
		for _, d := range p.Devices() {
			if d == dev {
				found = true
			}
		}
		if !found {
			t.Errorf("device %s is not listed on its own platform", dev.Name())
		}
	}
}

func TestRuntime_Live_Select(t *testing.T) {
	rt := newTestRuntime(t)

	dev, err := rt.Select(par.AspectSelector(nil))
	if err != nil {
		t.Fatalf("empty selector must select from a populated runtime: %v", err)
	}
	if dev == nil {
		t.Fatal("Select returned a nil device without error")
	}

	// No OCCA device ever reports custom.
	_, err = rt.Select(par.AspectSelectorOf(par.AspectCustom))
	if par.CodeOf(err) != par.ErrcRuntime {
		t.Errorf("unsatisfiable selection must fail with errc runtime, got %v", err)
	}
}

func TestQueue_Live_MultiReduce(t *testing.T) {
	rt := newTestRuntime(t)
	q, err := rt.NewQueue(par.AspectSelector(nil))
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	defer q.(*Queue).Free()

	n := 1000
	sumData := make([]float64, n)
	maxData := make([]int64, n)
	var wantSum float64
	wantMax := int64(-1 << 62)
	for i := 0; i < n; i++ {
		sumData[i] = float64(i%17) * 0.5
		maxData[i] = int64((i*31)%997) - 500
		wantSum += sumData[i]
		if maxData[i] > wantMax {
			wantMax = maxData[i]
		}
	}

	ops := []par.ReduceOperand{
		{Op: par.ReduceSum, Type: par.Float64, Data: sumData},
		{Op: par.ReduceMax, Type: par.INT64, Data: maxData},
	}
	results, err := q.MultiReduce(ops)
	if err != nil {
		t.Fatalf("MultiReduce: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	gotSum := results[0].(float64)
	if diff := gotSum - wantSum; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("sum = %v, want %v", gotSum, wantSum)
	}
	if got := results[1].(int64); got != wantMax {
		t.Errorf("max = %d, want %d", got, wantMax)
	}
}

func TestQueue_Live_KernelReuse(t *testing.T) {
	rt := newTestRuntime(t)
	q, err := rt.NewQueue(par.AspectSelector(nil))
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	queue := q.(*Queue)
	defer queue.Free()

	data := []int32{1, 2, 3, 4, 5}
	ops := []par.ReduceOperand{{Op: par.ReduceSum, Type: par.INT32, Data: data}}
	if _, err := queue.MultiReduce(ops); err != nil {
		t.Fatal(err)
	}
	built := len(queue.kernels)
	if _, err := queue.MultiReduce(ops); err != nil {
		t.Fatal(err)
	}
	if len(queue.kernels) != built {
		t.Errorf("identical launch rebuilt the kernel: %d -> %d cached",
			built, len(queue.kernels))
	}
}

func TestInitOnlyResult(t *testing.T) {
	cases := []struct {
		name string
		op   par.ReduceOperand
		want interface{}
	}{
		{"sum_identity",
			par.ReduceOperand{Op: par.ReduceSum, Type: par.INT64, Data: []int64{}},
			int64(0)},
		{"explicit_init",
			par.ReduceOperand{Op: par.ReduceSum, Type: par.INT64, Data: []int64{},
				Init: int64(42)},
			int64(42)},
		{"init_to_identity",
			par.ReduceOperand{Op: par.ReduceProd, Type: par.Float32, Data: []float32{},
				Init: float32(7), InitToIdentity: true},
			float32(1)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := initOnlyResult(c.op); got != c.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, c.want, c.want)
			}
		})
	}

	t.Run("span", func(t *testing.T) {
		op := par.ReduceOperand{Op: par.ReduceMin, Type: par.Float64,
			Data: []float64{}, Span: 3}
		got, ok := initOnlyResult(op).([]float64)
		if !ok || len(got) != 3 {
			t.Fatalf("span result should be a 3-element slice, got %v", got)
		}
		for _, v := range got {
			if v != par.IdentityFloat64(par.ReduceMin) {
				t.Errorf("span slot = %v, want +inf", v)
			}
		}
	})
}
