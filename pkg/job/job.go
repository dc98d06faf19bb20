//go:build linux

// Package job attributes a sampled process to a batch-scheduler job id,
// abstracting the job queue (if any) away from the rest of sonar.
package job

import (
	"fmt"

	"github.com/ja7ad/sonar/pkg/system/cgroup"
	"github.com/ja7ad/sonar/pkg/system/procfs"
)

// Attributor computes (job id, is-slurm) for one pid. The is-slurm bool
// tells the sampler whether a process counts as "under the scheduler" at
// all. AnyAttributor sets it for a nonzero id from a Slurm cgroup marker,
// and for its process-group fallback only when ForceSlurm is set;
// BatchlessAttributor sets it for every nonzero job id it derives.
type Attributor interface {
	JobIDFromPID(procRoot string, pid int, processes map[int]procfs.Process) (jobID int64, isSlurm bool)
}

// NoAttributor reports every process as job 0, not under Slurm.
type NoAttributor struct{}

func (NoAttributor) JobIDFromPID(procRoot string, pid int, processes map[int]procfs.Process) (int64, bool) {
	return 0, false
}

// AnyAttributor checks for a Slurm cgroup marker first and falls back to the
// process group id when none is present. ForceSlurm makes the pgrp fallback
// report isSlurm=true too, for clusters that are known to run Slurm but whose
// cgroup layout sonar doesn't recognize.
type AnyAttributor struct {
	ForceSlurm bool
}

func (a AnyAttributor) JobIDFromPID(procRoot string, pid int, processes map[int]procfs.Process) (int64, bool) {
	if id, found, err := cgroup.JobIDFromFile(fmt.Sprintf("%s/%d/cgroup", procRoot, pid)); err == nil && found {
		return int64(id), id != 0
	}
	if p, ok := processes[pid]; ok {
		return int64(p.PGRP), a.ForceSlurm
	}
	return 0, false
}

// NewAttributor builds the default Attributor used by the sampler.
func NewAttributor(forceSlurm bool) Attributor {
	return AnyAttributor{ForceSlurm: forceSlurm}
}
