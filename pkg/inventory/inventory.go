//go:build linux

// Package inventory produces the static node description: sockets, cores,
// threads, memory, and accelerator inventory.
package inventory

import (
	"fmt"
	"sort"

	"github.com/ja7ad/sonar/pkg/envelope"
	"github.com/ja7ad/sonar/pkg/gpu"
	"github.com/ja7ad/sonar/pkg/system/procfs"
)

// Describe calls the procfs reader for CPU/memory and the GPU handle for
// card inventory, then produces a deterministic textual description by
// sorting cards by (model, memory size) and merging adjacent equal cards
// into "Nx model @ MiB".
func Describe(api procfs.API, gpuHandle gpu.Handle) (envelope.SysinfoAttributes, error) {
	cpu, err := procfs.ReadCPUInventory(api)
	if err != nil {
		return envelope.SysinfoAttributes{}, fmt.Errorf("inventory: cpu: %w", err)
	}
	mem, err := procfs.ReadMemory(api)
	if err != nil {
		return envelope.SysinfoAttributes{}, fmt.Errorf("inventory: memory: %w", err)
	}

	attrs := envelope.SysinfoAttributes{
		Sockets:        cpu.Sockets,
		CoresPerSocket: cpu.CoresPerSocket,
		ThreadsPerCore: cpu.ThreadsPerCore,
		CoreModels:     cpu.CoreModels,
		MemoryKiB:      mem.TotalKiB,
	}

	if gpuHandle != nil {
		cards, err := gpuHandle.Cards()
		if err == nil {
			attrs.Cards = toEnvelopeCards(cards)
			attrs.Description = describeCards(cards)
		}
	}
	return attrs, nil
}

func toEnvelopeCards(cards []gpu.Card) []envelope.GpuCard {
	out := make([]envelope.GpuCard, len(cards))
	for i, c := range cards {
		out[i] = envelope.GpuCard{
			UUID:           c.UUID,
			Index:          c.Index,
			Manufacturer:   c.Manufacturer,
			Model:          c.Model,
			Architecture:   c.Architecture,
			Driver:         c.Driver,
			Firmware:       c.Firmware,
			BusAddress:     c.BusAddress,
			MemoryKiB:      c.MemoryKiB,
			PowerLimitW:    c.PowerLimitW,
			MinPowerW:      c.MinPowerW,
			MaxPowerW:      c.MaxPowerW,
			MaxCEClockMHz:  c.MaxCEClockMHz,
			MaxMemClockMHz: c.MaxMemClockMHz,
		}
	}
	return out
}

// describeCards sorts by (model, memory) and merges adjacent equal cards
// into "Nx model @ MiB" fragments, comma-joined.
func describeCards(cards []gpu.Card) string {
	if len(cards) == 0 {
		return ""
	}
	sorted := make([]gpu.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Model != sorted[j].Model {
			return sorted[i].Model < sorted[j].Model
		}
		return sorted[i].MemoryKiB < sorted[j].MemoryKiB
	})

	var parts []string
	count := 1
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].Model == sorted[i-1].Model && sorted[i].MemoryKiB == sorted[i-1].MemoryKiB {
			count++
			continue
		}
		c := sorted[i-1]
		parts = append(parts, fmt.Sprintf("%dx %s @ %dMiB", count, c.Model, c.MemoryKiB/1024))
		count = 1
	}
	return joinComma(parts)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
