//go:build linux

// Package sampler joins the procfs reader, the GPU adapter, and the job
// attributor into one sample record, applying roll-up and inclusion/
// exclusion filters.
package sampler

import (
	"fmt"
	"sort"
	"time"

	"github.com/ja7ad/sonar/pkg/envelope"
	"github.com/ja7ad/sonar/pkg/gpu"
	"github.com/ja7ad/sonar/pkg/job"
	"github.com/ja7ad/sonar/pkg/pidmap"
	"github.com/ja7ad/sonar/pkg/system/procfs"
)

// Filter holds the inclusion/exclusion thresholds applied after aggregation.
type Filter struct {
	MinCPUPct    float64
	MinMemPct    float64
	MinCPUTime   float64
	ExcludeUID   int
	ExcludeUser  string
	ExcludeCmd   string
}

// Options configures one Sample call.
type Options struct {
	Cluster        string
	Node           string
	ProcRoot       string
	RollUp         bool
	ShortWindowMs  int64
	Filter         Filter
	UIDOf          func(pid int) (int, bool)
	UserOf         func(uid int) (string, bool)
}

// info is the working per-pid record the sampler builds up before emitting.
type info struct {
	pid, ppid  int
	user       string
	uid        int
	command    string
	jobID      int64
	isSlurm    bool
	hasChild   bool
	cpuAvgPct  float64
	cpuUtilPct float64
	cpuTimeSec float64
	memPct     float64
	virtualKiB uint64
	residentKiB uint64
	gpus       []envelope.ProcessGpuSample
	gpuFailure bool
	rolledUp   int
}

// Sample runs one full sampling pass: interruption check is the caller's
// responsibility (the control loop checks the flag before invoking this).
func Sample(api procfs.API, gpuHandle gpu.Handle, attributor job.Attributor, pm *pidmap.Map, opts Options) (envelope.SampleAttributes, error) {
	processes, err := procfs.EnumerateProcesses(api)
	if err != nil {
		return envelope.SampleAttributes{}, fmt.Errorf("sampler: enumerate processes: %w", err)
	}

	byPid := make(map[int]procfs.Process, len(processes))
	before := make(map[int]uint64, len(processes))
	for _, p := range processes {
		byPid[p.PID] = p
		before[p.PID] = p.BSDTicks()
	}

	var utilDelta map[int]float64
	if opts.ShortWindowMs > 0 {
		utilDelta = procfs.ShortWindowUtilization(api, before, opts.ShortWindowMs)
	}

	childOf := make(map[int]bool, len(processes))
	for _, p := range processes {
		if p.PPID != p.PID {
			childOf[p.PPID] = true
		}
	}

	table := make(map[int]*info, len(processes))
	for _, p := range processes {
		jobID, isSlurm := attributor.JobIDFromPID(opts.ProcRoot, p.PID, byPid)
		uid := 0
		if opts.UIDOf != nil {
			uid, _ = opts.UIDOf(p.PID)
		}
		user := ""
		if opts.UserOf != nil {
			if u, ok := opts.UserOf(uid); ok {
				user = u
			}
		}
		rec := &info{
			pid:         p.PID,
			ppid:        p.PPID,
			user:        user,
			uid:         uid,
			command:     p.Command,
			jobID:       jobID,
			isSlurm:     isSlurm,
			hasChild:    childOf[p.PID],
			cpuAvgPct:   p.CPUPercent,
			cpuTimeSec:  p.CPUSeconds,
			memPct:      p.MemPercent,
			virtualKiB:  p.VirtualKiB,
			residentKiB: p.RssAnonKiB,
		}
		if utilDelta != nil {
			rec.cpuUtilPct = utilDelta[p.PID]
		}
		table[p.PID] = rec
	}

	if gpuHandle != nil {
		if _, err := gpuHandle.CardStates(); err != nil {
			for _, r := range table {
				r.gpuFailure = true
			}
		}
		usage, uerr := gpuHandle.ProcessUsage(opts.UIDOf)
		if uerr == nil {
			mergeGPUUsage(table, usage)
		}
	}

	if opts.RollUp {
		rollUp(table, pm)
		if pm != nil {
			pm.AssignmentsComplete()
		}
	}

	records := filterRecords(table, opts.Filter)
	sort.Slice(records, func(i, j int) bool { return records[i].PID < records[j].PID })

	attrs := envelope.SampleAttributes{
		Time:    time.Now().UTC().Format("2006-01-02T15:04:05-07:00"),
		Cluster: opts.Cluster,
		Node:    opts.Node,
	}
	if len(records) == 0 {
		attrs.Heartbeat = true
		return attrs, nil
	}
	attrs.Processes = records
	return attrs, nil
}

// mergeGPUUsage merges per-(pid,card) GPU tuples into the process table,
// synthesizing a ppid=1/"_unknown_" entry for GPU-only processes that have
// no corresponding kernel process.
func mergeGPUUsage(table map[int]*info, usage []gpu.ProcessUsage) {
	for _, u := range usage {
		rec, ok := table[u.PID]
		if !ok {
			rec = &info{pid: u.PID, ppid: 1, command: "_unknown_"}
			table[u.PID] = rec
		}
		rec.gpus = append(rec.gpus, envelope.ProcessGpuSample{
			CardIndex: u.CardIndex,
			UtilPct:   u.UtilPct,
			MemPct:    u.MemPct,
			MemKiB:    u.MemKiB,
		})
	}
}

// rollUpKey groups eligible processes for aggregation.
type rollUpKey struct {
	jobID   int64
	ppid    int
	command string
}

// rollUp groups eligible processes (job id != 0, no children, attributed to
// the scheduler) by (job-id, parent-pid, command), sums their numerics, and
// assigns each group a stable synthetic pid from pm.
func rollUp(table map[int]*info, pm *pidmap.Map) {
	groups := make(map[rollUpKey][]*info)
	for _, r := range table {
		if r.jobID == 0 || r.hasChild || !r.isSlurm {
			continue
		}
		k := rollUpKey{jobID: r.jobID, ppid: r.ppid, command: r.command}
		groups[k] = append(groups[k], r)
	}

	for k, members := range groups {
		if len(members) < 2 {
			continue
		}
		agg := &info{
			ppid:    k.ppid,
			command: k.command,
			jobID:   k.jobID,
			isSlurm: true,
		}
		for _, m := range members {
			agg.cpuAvgPct += m.cpuAvgPct
			agg.cpuUtilPct += m.cpuUtilPct
			agg.cpuTimeSec += m.cpuTimeSec
			agg.virtualKiB += m.virtualKiB
			agg.residentKiB += m.residentKiB
			agg.gpus = aggregateGPUs(agg.gpus, m.gpus)
			if m.uid != 0 {
				agg.uid = m.uid
				agg.user = m.user
			}
			delete(table, m.pid)
		}
		agg.rolledUp = len(members)
		// pid stays zero: per the roll-up invariant there is no stable
		// representative pid once multiple processes are merged. The
		// synthetic pid is still assigned so pm can track and garbage-collect
		// the group across samples, but it is never written to the record.
		var key int
		if pm != nil {
			key = int(pm.AssignPid(k.jobID, k.ppid, k.command))
		} else {
			key = -(len(table) + 1)
		}
		table[key] = agg
	}
}

// aggregateGPUs merges b's per-card tuples into a, summing entries that
// share a card index.
func aggregateGPUs(a, b []envelope.ProcessGpuSample) []envelope.ProcessGpuSample {
	byCard := make(map[int]int, len(a))
	for i, g := range a {
		byCard[g.CardIndex] = i
	}
	for _, g := range b {
		if i, ok := byCard[g.CardIndex]; ok {
			a[i].UtilPct += g.UtilPct
			a[i].MemPct += g.MemPct
			a[i].MemKiB += g.MemKiB
			continue
		}
		byCard[g.CardIndex] = len(a)
		a = append(a, g)
	}
	return a
}

// filterRecords applies the inclusion-OR/exclusion-AND rule
// and converts surviving entries into envelope.ProcessSample values.
func filterRecords(table map[int]*info, f Filter) []envelope.ProcessSample {
	hasInclusion := f.MinCPUPct > 0 || f.MinMemPct > 0 || f.MinCPUTime > 0
	out := make([]envelope.ProcessSample, 0, len(table))
	for _, r := range table {
		if hasInclusion {
			included := (f.MinCPUPct > 0 && r.cpuAvgPct >= f.MinCPUPct) ||
				(f.MinMemPct > 0 && r.memPct >= f.MinMemPct) ||
				(f.MinCPUTime > 0 && r.cpuTimeSec >= f.MinCPUTime)
			if !included {
				continue
			}
		}
		if f.ExcludeUID > 0 && r.uid != 0 && r.uid < f.ExcludeUID {
			continue
		}
		if f.ExcludeUser != "" && r.user == f.ExcludeUser {
			continue
		}
		if f.ExcludeCmd != "" && len(r.command) >= len(f.ExcludeCmd) && r.command[:len(f.ExcludeCmd)] == f.ExcludeCmd {
			continue
		}
		out = append(out, toProcessSample(r))
	}
	return out
}

func toProcessSample(r *info) envelope.ProcessSample {
	return envelope.ProcessSample{
		PID:         uint64(r.pid),
		PPID:        uint64(r.ppid),
		User:        r.user,
		UID:         r.uid,
		Command:     r.command,
		JobID:       r.jobID,
		IsJobMgr:    r.isSlurm,
		CPUAvgPct:   r.cpuAvgPct,
		CPUUtilPct:  r.cpuUtilPct,
		CPUTimeSec:  r.cpuTimeSec,
		VirtualKiB:  r.virtualKiB,
		ResidentKiB: r.residentKiB,
		Gpus:        r.gpus,
		RolledUp:    r.rolledUp,
		GpuFailure:  r.gpuFailure,
	}
}
