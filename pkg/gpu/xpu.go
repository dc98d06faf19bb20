//go:build linux

package gpu

import (
	"os"
	"strings"
)

// xpuSentinel is the kernel-module tree marker for Intel GPUs: every card
// directory under DRM carries a PCI vendor file, and Intel's is 0x8086.
const xpuSentinel = "/sys/class/drm"

const intelVendorID = "0x8086"

// XPUFamily probes for Intel data-center GPUs (Flex/Max series) via the DRM
// sysfs tree, since no XPU SMI binding exists in this module's dependency
// set. Like Habana, it exposes no per-process view.
type XPUFamily struct{}

func (XPUFamily) Name() string { return "xpu" }

func (XPUFamily) Probe() (Handle, bool) {
	entries, err := os.ReadDir(xpuSentinel)
	if err != nil {
		return nil, false
	}
	var cards []Card
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "card") {
			continue
		}
		vendor, err := os.ReadFile(xpuSentinel + "/" + e.Name() + "/device/vendor")
		if err != nil || strings.TrimSpace(string(vendor)) != intelVendorID {
			continue
		}
		cards = append(cards, Card{Index: len(cards), Manufacturer: "Intel", Model: "Data Center GPU"})
	}
	if len(cards) == 0 {
		return nil, false
	}
	return &xpuHandle{cards: cards}, true
}

type xpuHandle struct {
	cards []Card
}

func (h *xpuHandle) Manufacturer() string { return "Intel" }
func (h *xpuHandle) Close()               {}

func (h *xpuHandle) Cards() ([]Card, error) {
	return h.cards, nil
}

func (h *xpuHandle) CardStates() ([]CardState, error) {
	states := make([]CardState, len(h.cards))
	for i, c := range h.cards {
		states[i] = CardState{CardIndex: c.Index, PerfState: -1}
	}
	return states, nil
}

func (h *xpuHandle) ProcessUsage(uidOf func(pid int) (int, bool)) ([]ProcessUsage, error) {
	return nil, ErrNoProcessView
}
