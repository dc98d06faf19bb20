//go:build linux

package gpu

import (
	"fmt"
	"os"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvidiaSentinel is the kernel-module tree marker checked before NVML is
// ever touched.
const nvidiaSentinel = "/proc/driver/nvidia/version"

// NvidiaFamily probes for an NVML-capable driver.
type NvidiaFamily struct{}

func (NvidiaFamily) Name() string { return "nvidia" }

func (NvidiaFamily) Probe() (Handle, bool) {
	if _, err := os.Stat(nvidiaSentinel); err != nil {
		return nil, false
	}
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, false
	}
	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS || count == 0 {
		_ = nvml.Shutdown()
		return nil, false
	}
	return &nvidiaHandle{count: count}, true
}

type nvidiaHandle struct {
	mu    sync.Mutex
	count int
}

func (h *nvidiaHandle) Manufacturer() string { return "NVIDIA" }

func (h *nvidiaHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = nvml.Shutdown()
}

func (h *nvidiaHandle) Cards() ([]Card, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	driverVersion, _ := nvml.SystemGetDriverVersion()
	hostname, _ := os.Hostname()

	cards := make([]Card, 0, h.count)
	for i := 0; i < h.count; i++ {
		dev, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue
		}
		name, _ := dev.GetName()
		uuid, uret := dev.GetUUID()
		pciInfo, _ := dev.GetPciInfo()
		busAddr := pciBusID(pciInfo)
		if uret != nvml.SUCCESS || uuid == "" {
			uuid = synthesizeUUID(hostname, busAddr)
		}
		mem, _ := dev.GetMemoryInfo()
		powerLimit, _ := dev.GetPowerManagementLimit()
		minLimit, maxLimit, _ := dev.GetPowerManagementLimitConstraints()
		maxCE, _ := dev.GetMaxClockInfo(nvml.CLOCK_SM)
		maxMem, _ := dev.GetMaxClockInfo(nvml.CLOCK_MEM)
		firmware, _ := dev.GetVbiosVersion()

		cards = append(cards, Card{
			UUID:           uuid,
			Index:          i,
			Manufacturer:   "NVIDIA",
			Model:          name,
			Architecture:   "",
			Driver:         driverVersion,
			Firmware:       firmware,
			BusAddress:     busAddr,
			MemoryKiB:      mem.Total / 1024,
			PowerLimitW:    uint64(powerLimit) / 1000,
			MinPowerW:      uint64(minLimit) / 1000,
			MaxPowerW:      uint64(maxLimit) / 1000,
			MaxCEClockMHz:  uint64(maxCE),
			MaxMemClockMHz: uint64(maxMem),
		})
	}
	return cards, nil
}

func (h *nvidiaHandle) CardStates() ([]CardState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	states := make([]CardState, 0, h.count)
	for i := 0; i < h.count; i++ {
		dev, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			states = append(states, CardState{CardIndex: i, Failing: true, PerfState: -1})
			continue
		}
		util, _ := dev.GetUtilizationRates()
		mem, _ := dev.GetMemoryInfo()
		temp, _ := dev.GetTemperature(nvml.TEMPERATURE_GPU)
		power, _ := dev.GetPowerUsage()
		powerLimit, _ := dev.GetPowerManagementLimit()
		ceClock, _ := dev.GetClockInfo(nvml.CLOCK_SM)
		memClock, _ := dev.GetClockInfo(nvml.CLOCK_MEM)
		fan, _ := dev.GetFanSpeed()
		pstate, pret := dev.GetPerformanceState()
		perf := -1
		if pret == nvml.SUCCESS {
			perf = int(pstate)
		}
		mode, _ := dev.GetComputeMode()

		states = append(states, CardState{
			CardIndex:   i,
			FanPct:      float64(fan),
			ComputeMode: computeModeString(mode),
			PerfState:   perf,
			UsedMemKiB:  mem.Used / 1024,
			ReservedKiB: 0,
			GpuUtilPct:  float64(util.Gpu),
			MemUtilPct:  float64(util.Memory),
			TempC:       int64(temp),
			PowerW:      float64(power) / 1000,
			PowerLimitW: float64(powerLimit) / 1000,
			CEClockMHz:  uint64(ceClock),
			MemClockMHz: uint64(memClock),
		})
	}
	return states, nil
}

// ProcessUsage reports one record per card per process; the sampler keeps
// them as separate per-card entries on the process.
func (h *nvidiaHandle) ProcessUsage(uidOf func(pid int) (int, bool)) ([]ProcessUsage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []ProcessUsage
	for i := 0; i < h.count; i++ {
		dev, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue
		}
		mem, _ := dev.GetMemoryInfo()
		procs, pret := dev.GetComputeRunningProcesses()
		if pret != nvml.SUCCESS {
			continue
		}
		for _, p := range procs {
			memPct := 0.0
			if mem.Total > 0 {
				memPct = float64(p.UsedGpuMemory) * 100 / float64(mem.Total)
			}
			out = append(out, ProcessUsage{
				PID:       int(p.Pid),
				CardIndex: i,
				MemKiB:    p.UsedGpuMemory / 1024,
				MemPct:    memPct,
			})
		}
	}
	return out, nil
}

func pciBusID(info nvml.PciInfo) string {
	return fmt.Sprintf("%04x:%02x:%02x.0", info.Domain, info.Bus, info.Device)
}

func computeModeString(mode nvml.ComputeMode) string {
	switch mode {
	case nvml.COMPUTEMODE_DEFAULT:
		return "Default"
	case nvml.COMPUTEMODE_EXCLUSIVE_THREAD:
		return "Exclusive_Thread"
	case nvml.COMPUTEMODE_PROHIBITED:
		return "Prohibited"
	case nvml.COMPUTEMODE_EXCLUSIVE_PROCESS:
		return "Exclusive_Process"
	default:
		return "Unknown"
	}
}

// synthesizeUUID builds a stable identifier when the vendor doesn't supply
// one, per the uuid discipline: hostname/boot-time/bus-address. We
// don't have boot-time in this scope, so the card's bus address stands in
// for the (hostname, bus-address) half of that key.
func synthesizeUUID(hostname, busAddr string) string {
	return fmt.Sprintf("%s/%s", hostname, busAddr)
}
