//go:build linux

package gpu

import "os"

// habanaSentinel is the kernel-module tree marker for Habana Gaudi cards.
const habanaSentinel = "/sys/class/accel"

// HabanaFamily probes for Habana Gaudi accelerators via hl-smi's sysfs
// surface. Habana exposes no per-process view, so ProcessUsage always
// fails with ErrNoProcessView.
type HabanaFamily struct{}

func (HabanaFamily) Name() string { return "habana" }

func (HabanaFamily) Probe() (Handle, bool) {
	entries, err := os.ReadDir(habanaSentinel)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	cards := make([]Card, 0, len(entries))
	for i := range entries {
		cards = append(cards, Card{Index: i, Manufacturer: "Habana", Model: "Gaudi"})
	}
	return &habanaHandle{cards: cards}, true
}

type habanaHandle struct {
	cards []Card
}

func (h *habanaHandle) Manufacturer() string { return "Habana" }
func (h *habanaHandle) Close()               {}

func (h *habanaHandle) Cards() ([]Card, error) {
	return h.cards, nil
}

func (h *habanaHandle) CardStates() ([]CardState, error) {
	states := make([]CardState, len(h.cards))
	for i, c := range h.cards {
		states[i] = CardState{CardIndex: c.Index, PerfState: -1}
	}
	return states, nil
}

func (h *habanaHandle) ProcessUsage(uidOf func(pid int) (int, bool)) ([]ProcessUsage, error) {
	return nil, ErrNoProcessView
}
