//go:build linux

package procfs

import (
	"fmt"
	"strconv"
	"strings"
)

// Memory is the total/available snapshot from /proc/meminfo, in KiB.
type Memory struct {
	TotalKiB     uint64
	AvailableKiB uint64
}

// ReadMemory fails if MemTotal is absent; MemAvailable defaults to 0 if the
// kernel doesn't expose it (pre-3.14).
func ReadMemory(api API) (Memory, error) {
	text, err := api.ReadToString("meminfo")
	if err != nil {
		return Memory{}, fmt.Errorf("procfs: read meminfo: %w", err)
	}
	var m Memory
	var haveTotal bool
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			m.TotalKiB = firstUint(line)
			haveTotal = true
		case strings.HasPrefix(line, "MemAvailable:"):
			m.AvailableKiB = firstUint(line)
		}
	}
	if !haveTotal {
		return Memory{}, ErrNoMemTotal
	}
	return m, nil
}

func firstUint(line string) uint64 {
	fields := strings.Fields(line)
	for _, f := range fields[1:] {
		if v, err := strconv.ParseUint(f, 10, 64); err == nil {
			return v
		}
	}
	return 0
}

// CPUInventory is the derived core topology from /proc/cpuinfo.
type CPUInventory struct {
	Sockets        int
	CoresPerSocket int
	ThreadsPerCore int
	CoreModels     []string // one per logical processor, in index order
}

// ReadCPUInventory distinguishes the two cpuinfo dialects named in the
// procfs contract: dialect X carries a "physical id" field and lets sockets
// be derived from distinct physical ids; dialect A (no physical id) assumes
// a single socket.
func ReadCPUInventory(api API) (CPUInventory, error) {
	text, err := api.ReadToString("cpuinfo")
	if err != nil {
		return CPUInventory{}, fmt.Errorf("procfs: read cpuinfo: %w", err)
	}

	var (
		models      []string
		physIDs     = map[string]struct{}{}
		siblings    int
		cores       int
		havePhysID  bool
		curModel    string
		haveCurrent bool
	)
	flush := func() {
		if haveCurrent {
			models = append(models, curModel)
		}
		curModel, haveCurrent = "", false
	}
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "processor"):
			flush()
			haveCurrent = true
			curModel = ""
		case strings.HasPrefix(line, "model name"):
			curModel = valueAfterColon(line)
		case strings.HasPrefix(line, "physical id"):
			havePhysID = true
			physIDs[valueAfterColon(line)] = struct{}{}
		case strings.HasPrefix(line, "siblings"):
			siblings = atoiSafe(valueAfterColon(line))
		case strings.HasPrefix(line, "cpu cores"):
			cores = atoiSafe(valueAfterColon(line))
		}
	}
	flush()

	if len(models) == 0 {
		return CPUInventory{}, ErrNoCPUInfo
	}

	inv := CPUInventory{CoreModels: models}
	if havePhysID {
		inv.Sockets = len(physIDs)
		if inv.Sockets == 0 {
			inv.Sockets = 1
		}
		if cores > 0 {
			inv.CoresPerSocket = cores
		}
		if cores > 0 && siblings > 0 {
			inv.ThreadsPerCore = siblings / cores
		}
		if inv.ThreadsPerCore == 0 {
			inv.ThreadsPerCore = 1
		}
	} else {
		inv.Sockets = 1
		inv.CoresPerSocket = len(models)
		inv.ThreadsPerCore = 1
	}
	return inv, nil
}

func valueAfterColon(line string) string {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[i+1:])
}

func atoiSafe(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

// BootTimeSec reads the "btime" field of /proc/stat.
func BootTimeSec(api API) (int64, error) {
	text, err := api.ReadToString("stat")
	if err != nil {
		return 0, fmt.Errorf("procfs: read stat: %w", err)
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "btime") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				v, err := strconv.ParseInt(fields[1], 10, 64)
				if err == nil {
					return v, nil
				}
			}
		}
	}
	return 0, ErrNoBootTime
}

// NodeCPUTicks sums user+nice+system+irq+softirq per CPU line ("cpu" or
// "cpuN"), returning whole-node seconds and per-CPU seconds. Guest time is
// ignored and nice is summed on top of user, not folded into it.
func NodeCPUTicks(api API) (nodeSec float64, perCPUSec map[string]float64, err error) {
	text, err := api.ReadToString("stat")
	if err != nil {
		return 0, nil, fmt.Errorf("procfs: read stat: %w", err)
	}
	ticks := api.ClockTicksPerSec()
	if ticks <= 0 {
		ticks = 100
	}
	perCPUSec = map[string]float64{}
	var total float64
	found := false
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 8 || !strings.HasPrefix(fields[0], "cpu") {
			continue
		}
		found = true
		var vals [7]uint64
		for i := 0; i < 7 && i+1 < len(fields); i++ {
			vals[i], _ = strconv.ParseUint(fields[i+1], 10, 64)
		}
		// user nice system idle iowait irq softirq
		sum := vals[0] + vals[1] + vals[2] + vals[5] + vals[6]
		sec := float64(sum) / float64(ticks)
		if fields[0] == "cpu" {
			total = sec
			continue
		}
		perCPUSec[fields[0]] = sec
	}
	if !found {
		return 0, nil, ErrNoCPULine
	}
	return total, perCPUSec, nil
}

// LoadAvg is the parsed five-field /proc/loadavg.
type LoadAvg struct {
	Load1, Load5, Load15 float64
	Runnable, Existing   int
}

func ReadLoadAvg(api API) (LoadAvg, error) {
	text, err := api.ReadToString("loadavg")
	if err != nil {
		return LoadAvg{}, fmt.Errorf("procfs: read loadavg: %w", err)
	}
	fields := strings.Fields(text)
	if len(fields) < 4 {
		return LoadAvg{}, ErrNoLoad
	}
	runExisting := strings.SplitN(fields[3], "/", 2)
	if len(runExisting) != 2 {
		return LoadAvg{}, ErrNoLoad
	}
	var l LoadAvg
	l.Load1, _ = strconv.ParseFloat(fields[0], 64)
	l.Load5, _ = strconv.ParseFloat(fields[1], 64)
	l.Load15, _ = strconv.ParseFloat(fields[2], 64)
	l.Runnable, _ = strconv.Atoi(runExisting[0])
	l.Existing, _ = strconv.Atoi(runExisting[1])
	return l, nil
}
