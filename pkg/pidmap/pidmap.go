// Package pidmap assigns stable synthetic pids to rolled-up (job, parent,
// command) triples, drawing from a pool disjoint from the kernel pid range.
// Entries are born dirty, re-marked dirty on every touch, and purged between
// samples; freed space is recovered as a stack of descending ranges and
// consumed in roughly LRU order.
package pidmap

import "sort"

// MinRangeSize is the smallest gap the sweeper will keep in the free pool,
// to bound the pool's size.
const MinRangeSize = 100

type key struct {
	jobID   int64
	ppid    int
	command string
}

type value struct {
	pid   uint64
	dirty bool
}

// Map owns the synthetic-pid assignment table for exactly one sampler
// goroutine; it is never touched by any other thread.
type Map struct {
	entries map[key]*value

	minRangeSize uint64
	beforeFirst  uint64 // sentinel: max system pid
	afterLast    uint64 // sentinel: exclusive upper bound
	freshPid     uint64
	currMax      uint64
	pool         [][2]uint64 // stack of [low,high] ranges, descending
	dirty        bool
}

// New builds a map whose synthetic range starts just above pidMax.
func New(pidMax uint64) *Map {
	return &Map{
		entries:      map[key]*value{},
		minRangeSize: MinRangeSize,
		beforeFirst:  pidMax,
		afterLast:    ^uint64(0),
		freshPid:     pidMax + 1,
		currMax:      ^uint64(0) - 1,
		dirty:        true,
	}
}

// NewWithLimits lets tests exercise the sweeper with a small pid space and
// a small minimum recoverable range, mirroring SONARTEST_ROLLUP_PIDS.
func NewWithLimits(pidMax, poolSize, minRangeSize uint64) *Map {
	m := New(pidMax)
	m.afterLast = pidMax + 1 + poolSize
	m.currMax = m.afterLast - 1
	m.minRangeSize = minRangeSize
	return m
}

// AssignPid returns the synthetic pid for the (job, parent, command) triple,
// reusing the prior assignment if the triple was already seen and marking
// it touched ("dirty") for the current sweep generation.
func (m *Map) AssignPid(jobID int64, ppid int, command string) uint64 {
	k := key{jobID: jobID, ppid: ppid, command: command}
	if v, ok := m.entries[k]; ok {
		v.dirty = m.dirty
		return v.pid
	}
	pid := m.freshPid
	m.entries[k] = &value{pid: pid, dirty: m.dirty}
	m.advance()
	return pid
}

// AssignmentsComplete purges entries untouched since the previous call and
// flips the dirty generation. It must only be called once per sample, after
// every rolled-up process in that sample has called AssignPid.
func (m *Map) AssignmentsComplete() {
	for k, v := range m.entries {
		if v.dirty != m.dirty {
			delete(m.entries, k)
		}
	}
	m.dirty = !m.dirty
}

// Len reports the number of live synthetic assignments, for tests and
// diagnostics.
func (m *Map) Len() int { return len(m.entries) }

func (m *Map) avail() uint64 {
	var n uint64
	for _, r := range m.pool {
		n += r[1] - r[0] + 1
	}
	return n + (m.currMax - m.freshPid + 1)
}

func (m *Map) advance() {
	m.freshPid++
	if m.freshPid > m.currMax {
		if n := len(m.pool); n > 0 {
			r := m.pool[n-1]
			m.pool = m.pool[:n-1]
			m.freshPid, m.currMax = r[0], r[1]
			return
		}
		m.sweep()
	}
}

// sweep rebuilds the free pool from the live assignments. It panics if no
// pid can be recovered at all: this indicates the synthetic pid space has
// been exhausted, a configuration error rather than a recoverable runtime
// condition.
func (m *Map) sweep() {
	target := m.freshPid

	m.freshPid = 0
	m.currMax = 0
	m.pool = m.pool[:0]

	xs := make([]uint64, 0, len(m.entries)+2)
	for _, v := range m.entries {
		xs = append(xs, v.pid)
	}
	xs = append(xs, m.beforeFirst, m.afterLast)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })

	for i := len(xs) - 1; i > 0; i-- {
		high := xs[i] - 1
		low := xs[i-1] + 1
		if high >= low && high-low+1 >= m.minRangeSize {
			m.pool = append(m.pool, [2]uint64{low, high})
		}
	}
	if len(m.pool) == 0 {
		panic("pidmap: synthetic pid space exhausted")
	}

	if target > m.pool[0][1] {
		n := len(m.pool)
		r := m.pool[n-1]
		m.pool = m.pool[:n-1]
		m.freshPid, m.currMax = r[0], r[1]
		return
	}
	for {
		n := len(m.pool)
		r := m.pool[n-1]
		m.pool = m.pool[:n-1]
		m.freshPid, m.currMax = r[0], r[1]
		if m.currMax >= target {
			m.freshPid = target
			return
		}
	}
}
