package pidmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignPid_StableAcrossSamples(t *testing.T) {
	m := New(100)
	pid1 := m.AssignPid(42, 1000, "a.out")
	m.AssignmentsComplete()

	pid2 := m.AssignPid(42, 1000, "a.out")
	m.AssignmentsComplete()

	assert.Equal(t, pid1, pid2)
}

func TestAssignPid_DisjointFromKernelRange(t *testing.T) {
	const pidMax = 4194304
	m := New(pidMax)
	for i := 0; i < 10; i++ {
		pid := m.AssignPid(int64(i), 1, "cmd")
		assert.Greater(t, pid, uint64(pidMax))
	}
}

func TestAssignPid_DistinctTriplesGetDistinctPids(t *testing.T) {
	m := New(100)
	a := m.AssignPid(1, 10, "a")
	b := m.AssignPid(1, 10, "b")
	c := m.AssignPid(2, 10, "a")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)
}

func TestAssignmentsComplete_PurgesUntouchedEntries(t *testing.T) {
	m := New(100)
	_ = m.AssignPid(1, 1, "stale")
	m.AssignmentsComplete()
	require.Equal(t, 1, m.Len())

	// a full cycle with zero intervening touches purges the entry
	m.AssignmentsComplete()
	assert.Equal(t, 0, m.Len())
}

func TestAssignmentsComplete_TouchedEntrySurvives(t *testing.T) {
	m := New(100)
	_ = m.AssignPid(1, 1, "busy")
	m.AssignmentsComplete()
	_ = m.AssignPid(1, 1, "busy") // touched again this generation
	m.AssignmentsComplete()
	assert.Equal(t, 1, m.Len())
}

func TestAssignPid_StaysInSyntheticRangeAfterEntriesRemoved(t *testing.T) {
	// Small pid space (20) with a small minimum recoverable range (2). The
	// fifteen assignments below stay within the first pass through the
	// space, so the sweeper is not reached.
	m := NewWithLimits(1000, 20, 2)

	var pids []uint64
	for i := 0; i < 10; i++ {
		pids = append(pids, m.AssignPid(int64(i), 1, "x"))
	}
	// remove the even-indexed entries directly, then assign fresh triples
	// and confirm their pids stay within the synthetic range.
	for i := 0; i < 10; i += 2 {
		delete(m.entries, key{jobID: int64(i), ppid: 1, command: "x"})
	}
	m.AssignmentsComplete() // flips generation; retained entries still dirty-matched

	for i := 10; i < 15; i++ {
		pid := m.AssignPid(int64(i), 1, "y")
		assert.Greater(t, pid, uint64(1000))
		assert.LessOrEqual(t, pid, uint64(1000+20))
	}
}
