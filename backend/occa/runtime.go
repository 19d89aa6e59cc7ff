// Package occa adapts an OCCA installation to the par API so the conformance
// suites can run against live hardware. It enumerates devices by probing OCCA
// backend modes and executes multi-reduction launches through generated OKL
// kernels. All device enumeration and kernel execution is delegated to OCCA;
// nothing here implements a runtime of its own.
package occa

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/notargets/gocca"

	"github.com/openpar/cts/par"
)

// DefaultModes lists the OCCA device properties probed during enumeration,
// preferring parallel backends over Serial.
var DefaultModes = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "OpenCL", "platform_id": 0, "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// Runtime is the par.Runtime adapter over OCCA.
type Runtime struct {
	devices []par.Device
	logger  *slog.Logger
}

// NewRuntime probes each mode in modes and wraps every device that
// initializes. Modes that fail to initialize are skipped; an empty population
// is legal and simply drives the suites down their error paths. A nil modes
// slice probes DefaultModes.
func NewRuntime(modes []string, logger *slog.Logger) *Runtime {
	if modes == nil {
		modes = DefaultModes
	}
	if logger == nil {
		logger = slog.Default()
	}

	rt := &Runtime{logger: logger}
	for _, props := range modes {
		dev, err := gocca.NewDevice(props)
		if err != nil {
			logger.Debug("mode unavailable", "props", props, "err", err)
			continue
		}
		wrapped := newDevice(dev, dev.Mode())
		rt.devices = append(rt.devices, wrapped)
		logger.Info("enumerated device", "mode", dev.Mode(), "name", wrapped.Name())
	}
	return rt
}

func (rt *Runtime) Name() string { return "occa" }

func (rt *Runtime) Devices() []par.Device {
	out := make([]par.Device, len(rt.devices))
	copy(out, rt.devices)
	return out
}

func (rt *Runtime) Select(sel par.Selector) (par.Device, error) {
	return par.SelectVia(rt.devices, sel)
}

func (rt *Runtime) NewQueue(sel par.Selector) (par.Queue, error) {
	dev, err := rt.Select(sel)
	if err != nil {
		return nil, err
	}
	return &Queue{device: dev.(*Device)}, nil
}

// Free releases every enumerated OCCA device.
func (rt *Runtime) Free() {
	for _, d := range rt.devices {
		d.(*Device).occa.Free()
	}
	rt.devices = nil
}

// Device wraps one OCCA device together with its derived aspect set.
type Device struct {
	occa     *gocca.OCCADevice
	mode     string
	aspects  map[par.Aspect]bool
	platform *Platform
}

func newDevice(dev *gocca.OCCADevice, mode string) *Device {
	d := &Device{
		occa:    dev,
		mode:    mode,
		aspects: aspectsForMode(mode),
	}
	d.platform = &Platform{name: fmt.Sprintf("OCCA %s", mode), devices: []par.Device{d}}
	return d
}

func (d *Device) Name() string {
	return fmt.Sprintf("occa/%s", strings.ToLower(d.mode))
}

func (d *Device) Has(a par.Aspect) bool { return d.aspects[a] }

func (d *Device) Platform() par.Platform { return d.platform }

// Mode returns the underlying OCCA mode string ("OpenMP", "CUDA", ...).
func (d *Device) Mode() string { return d.mode }

// Platform groups the devices of one OCCA mode.
type Platform struct {
	name    string
	devices []par.Device
}

func (p *Platform) Name() string          { return p.name }
func (p *Platform) Devices() []par.Device { return p.devices }
func (p *Platform) Has(a par.Aspect) bool { return par.PlatformHasAll(p, a) }
