// Package gpu provides a uniform view over heterogeneous vendor SMI
// libraries: card inventory, per-card dynamic state, and per-process usage,
// normalized into one shared shape regardless of whether the vendor reports
// usage per-card-per-process (NVIDIA) or as a per-process card bitmap (AMD).
package gpu

import "errors"

// ErrNoProcessView is returned by families (e.g. Habana) that expose no
// per-process usage at all. The sampler records a failure flag rather than
// dropping the sample.
var ErrNoProcessView = errors.New("gpu: family exposes no per-process view")

// Card is the static per-accelerator inventory record.
type Card struct {
	UUID           string
	Index          int
	Manufacturer   string
	Model          string
	Architecture   string
	Driver         string
	Firmware       string
	BusAddress     string
	MemoryKiB      uint64
	PowerLimitW    uint64
	MinPowerW      uint64
	MaxPowerW      uint64
	MaxCEClockMHz  uint64
	MaxMemClockMHz uint64
}

// CardState is the per-sample dynamic record for one card.
type CardState struct {
	CardIndex   int
	Failing     bool
	FanPct      float64
	ComputeMode string
	PerfState   int // -1 means unknown
	UsedMemKiB  uint64
	ReservedKiB uint64
	GpuUtilPct  float64
	MemUtilPct  float64
	TempC       int64
	PowerW      float64
	PowerLimitW float64
	CEClockMHz  uint64
	MemClockMHz uint64
}

// ProcessUsage is one (pid, card) usage tuple, already normalized: AMD's
// per-process bitmap has been expanded into one tuple per set bit and
// NVIDIA's per-card-per-process rows are left as-is (the sampler attaches
// each tuple to its process as one per-card entry; no cross-card total is
// computed).
type ProcessUsage struct {
	PID        int
	CardIndex  int
	UtilPct    float64
	MemPct     float64
	MemKiB     uint64
}

// Handle is a probed, live accelerator family instance.
type Handle interface {
	Manufacturer() string
	Cards() ([]Card, error)
	CardStates() ([]CardState, error)
	// ProcessUsage returns one entry per (pid, card) touched since the last
	// call. uidOf resolves a pid to a uid for families that need it to
	// build their own process table; implementations that don't need it
	// may ignore the argument.
	ProcessUsage(uidOf func(pid int) (int, bool)) ([]ProcessUsage, error)
	Close()
}

// Family is a compile-time-selectable accelerator driver. Probe checks a
// vendor-specific sentinel in the kernel module tree and only invokes the
// SMI library on a positive sentinel.
type Family interface {
	Name() string
	Probe() (Handle, bool)
}

// ProbeAll runs Probe across every configured family and returns the first
// live handle, or nil if none are present. Only one accelerator family is
// expected per node.
func ProbeAll(families []Family) Handle {
	for _, f := range families {
		if h, ok := f.Probe(); ok {
			return h
		}
	}
	return nil
}
