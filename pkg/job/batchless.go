//go:build linux

package job

import "github.com/ja7ad/sonar/pkg/system/procfs"

// BatchlessAttributor is for systems with no job queue at all. It walks the
// tree of parents from pid until it reaches a process directly below a
// session leader, and takes that process's pid as the job id; a session
// leader is its own job; a process missing from the table is job 0; an
// orphaned process (parent missing from the table) falls back to its last
// known session.
type BatchlessAttributor struct {
	cache map[int][2]int // pid -> (session, ppid)
}

func NewBatchlessAttributor() *BatchlessAttributor {
	return &BatchlessAttributor{cache: make(map[int][2]int)}
}

func (b *BatchlessAttributor) lookup(processes map[int]procfs.Process, pid int) (session, ppid int, ok bool) {
	if v, found := b.cache[pid]; found {
		return v[0], v[1], true
	}
	p, found := processes[pid]
	if !found {
		return 0, 0, false
	}
	b.cache[pid] = [2]int{p.Session, p.PPID}
	return p.Session, p.PPID, true
}

func (b *BatchlessAttributor) JobIDFromPID(procRoot string, pid int, processes map[int]procfs.Process) (int64, bool) {
	session, ppid, ok := b.lookup(processes, pid)
	if !ok {
		return 0, false // lost process is job 0
	}
	for {
		if session == 0 {
			return int64(session), false // system process is its own job
		}
		if session == pid {
			return int64(session), true // session leader is its own job
		}
		parentSession, parentPpid, found := b.lookup(processes, ppid)
		if !found {
			return int64(session), true // orphaned subprocess is its own job
		}
		if ppid == parentSession {
			return int64(pid), true // parent is the session leader, pid is the job root
		}
		pid, session, ppid = ppid, parentSession, parentPpid
	}
}
