//go:build linux

package procfs

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ja7ad/sonar/pkg/system/util"
)

// Process is one row of the enumerated process table, before GPU/job joins.
type Process struct {
	PID, PPID, PGRP, Session int
	Command                  string // comm, with " <defunct>" appended for zombies
	UtimeTicks      uint64
	StimeTicks      uint64
	CutimeTicks     uint64
	CstimeTicks     uint64
	StarttimeTicks  uint64

	VirtualKiB  uint64
	ResidentKiB uint64 // statm-derived RSS, used only for the pmem% derivation
	RssAnonKiB  uint64 // "private resident anonymous", the emitted memory field
	HasRssAnon  bool

	ReadBytesKiB      uint64
	WriteBytesKiB     uint64
	CancelledWriteKiB uint64
	HasIO             bool

	NumThreads int

	CPUPercent  float64 // derived, one-decimal
	CPUSeconds  float64 // derived
	MemPercent  float64 // derived, capped at 99.9
	CPUUtilPcnt float64 // left 0 by EnumerateProcesses; the sampler keeps short-window utilization in its own record
}

// EnumerateProcesses walks /proc's numeric entries and parses each stat/
// statm/status/io file. A process that vanishes mid-enumeration, or whose
// per-process files are unreadable, is silently skipped (race is normal). A
// dead process (state X) is discarded; a zombie (state Z) is kept with its
// command suffixed " <defunct>".
func EnumerateProcesses(api API) ([]Process, error) {
	names, err := api.ReadNumericFileNames("")
	if err != nil {
		return nil, fmt.Errorf("procfs: list /proc: %w", err)
	}

	bootSec, err := BootTimeSec(api)
	if err != nil {
		return nil, err
	}
	ticks := api.ClockTicksPerSec()
	if ticks <= 0 {
		ticks = 100
	}
	pageKiB := api.PageSizeKiB()
	nowTicks := api.NowUnixSec() * ticks
	bootTicks := bootSec * ticks

	mem, err := ReadMemory(api)
	if err != nil {
		return nil, err
	}

	out := make([]Process, 0, len(names))
	for _, name := range names {
		pid, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		p, ok := readOneProcess(api, pid, ticks, pageKiB, nowTicks, bootTicks, mem.TotalKiB)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func readOneProcess(api API, pid int, ticks, pageKiB, nowTicks, bootTicks int64, memTotalKiB uint64) (Process, bool) {
	statText, err := api.ReadToString(fmt.Sprintf("%d/stat", pid))
	if err != nil {
		return Process{}, false
	}
	comm, tail, ok := splitStatLine(statText)
	if !ok {
		return Process{}, false
	}
	fields := strings.Fields(tail)
	if len(fields) < 1 {
		return Process{}, false
	}
	state := fields[0]
	if state == "X" {
		return Process{}, false
	}
	if state == "Z" {
		comm += " <defunct>"
	}

	get := func(idx int) uint64 {
		if idx >= len(fields) {
			return 0
		}
		s := fields[idx]
		if s == "-1" {
			return 0
		}
		v, _ := strconv.ParseUint(s, 10, 64)
		return v
	}
	geti := func(idx int) int {
		return int(get(idx))
	}

	p := Process{
		PID:            pid,
		PPID:           geti(1),
		PGRP:           geti(2),
		Session:        geti(3),
		Command:        comm,
		UtimeTicks:     get(11),
		StimeTicks:     get(12),
		CutimeTicks:    get(13),
		CstimeTicks:    get(14),
		StarttimeTicks: get(19),
	}

	if statm, err := api.ReadToString(fmt.Sprintf("%d/statm", pid)); err == nil {
		sf := strings.Fields(statm)
		if len(sf) > 5 {
			dataPages, _ := strconv.ParseUint(sf[5], 10, 64)
			p.VirtualKiB = dataPages * uint64(pageKiB)
		}
		if len(sf) > 1 {
			residentPages, _ := strconv.ParseUint(sf[1], 10, 64)
			p.ResidentKiB = residentPages * uint64(pageKiB)
		}
	}

	if status, err := api.ReadToString(fmt.Sprintf("%d/status", pid)); err == nil {
		for _, line := range strings.Split(status, "\n") {
			if strings.HasPrefix(line, "RssAnon:") {
				fs := strings.Fields(line)
				if len(fs) >= 2 {
					v, _ := strconv.ParseUint(fs[1], 10, 64)
					p.RssAnonKiB = v
					p.HasRssAnon = true
				}
			}
		}
	}

	if io, err := api.ReadToString(fmt.Sprintf("%d/io", pid)); err == nil {
		p.HasIO = true
		for _, line := range strings.Split(io, "\n") {
			switch {
			case strings.HasPrefix(line, "read_bytes:"):
				p.ReadBytesKiB = ceilKiB(parseTrailingUint(line))
			case strings.HasPrefix(line, "write_bytes:"):
				p.WriteBytesKiB = ceilKiB(parseTrailingUint(line))
			case strings.HasPrefix(line, "cancelled_write_bytes:"):
				p.CancelledWriteKiB = ceilKiB(parseTrailingUint(line))
			}
		}
	}

	p.NumThreads = 1
	if names, err := api.ReadNumericFileNames(fmt.Sprintf("%d/task", pid)); err == nil && len(names) > 0 {
		p.NumThreads = len(names)
	}

	realtimeTicks := nowTicks - (bootTicks + int64(p.StarttimeTicks))
	if realtimeTicks < 1 {
		realtimeTicks = 1
	}
	pcpu := float64(p.UtimeTicks+p.StimeTicks) / float64(realtimeTicks)
	p.CPUPercent = util.Round1(pcpu * 100)

	bsdtime := p.UtimeTicks + p.StimeTicks + p.CutimeTicks + p.CstimeTicks
	p.CPUSeconds = float64((bsdtime + uint64(ticks)/2) / uint64(ticks))

	if memTotalKiB > 0 {
		pmem := math.Round(float64(p.ResidentKiB)*1000/float64(memTotalKiB)) / 10
		if pmem > 99.9 {
			pmem = 99.9
		}
		p.MemPercent = pmem
	}

	return p, true
}

// splitStatLine extracts comm (between the first '(' and the last ')') and
// returns the remaining tail, field-0-indexed from the state character.
func splitStatLine(line string) (comm, tail string, ok bool) {
	open := strings.IndexByte(line, '(')
	close := strings.LastIndexByte(line, ')')
	if open < 0 || close < 0 || close < open {
		return "", "", false
	}
	comm = line[open+1 : close]
	if close+2 > len(line) {
		return comm, "", true
	}
	tail = line[close+2:]
	return comm, tail, true
}

func parseTrailingUint(line string) uint64 {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return 0
	}
	v, _ := strconv.ParseUint(strings.TrimSpace(line[i+1:]), 10, 64)
	return v
}

func ceilKiB(bytes uint64) uint64 {
	return (bytes + 1023) / 1024
}

// ShortWindowUtilization recomputes (u+s+cu+cs) ticks for the same pids
// after a short sleep and returns per-pid ticks-per-second utilization.
// Processes that vanished between snapshots are silently dropped from the
// result, matching the "no error record" boundary behavior.
func ShortWindowUtilization(api API, before map[int]uint64, waitMs int64) map[int]float64 {
	ticks := api.ClockTicksPerSec()
	if ticks <= 0 {
		ticks = 100
	}
	time.Sleep(time.Duration(waitMs) * time.Millisecond)
	out := make(map[int]float64, len(before))
	for pid, prevTicks := range before {
		statText, err := api.ReadToString(fmt.Sprintf("%d/stat", pid))
		if err != nil {
			continue
		}
		_, tail, ok := splitStatLine(statText)
		if !ok {
			continue
		}
		fields := strings.Fields(tail)
		get := func(idx int) uint64 {
			if idx >= len(fields) || fields[idx] == "-1" {
				return 0
			}
			v, _ := strconv.ParseUint(fields[idx], 10, 64)
			return v
		}
		now := get(11) + get(12) + get(13) + get(14)
		delta := util.DeltaU64(now, prevTicks)
		out[pid] = float64(delta) * (1000.0 / float64(waitMs)) / float64(ticks)
	}
	return out
}

// BSDTicks returns utime+stime+cutime+cstime, the base value used both for
// cpu-seconds and for the short-window utilization delta.
func (p Process) BSDTicks() uint64 {
	return p.UtimeTicks + p.StimeTicks + p.CutimeTicks + p.CstimeTicks
}
