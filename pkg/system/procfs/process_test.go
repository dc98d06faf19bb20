//go:build linux

package procfs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statLine(pid int, comm, state string, rest ...string) string {
	fields := append([]string{state}, rest...)
	// pad up to starttime (index 19 after state, i.e. 20 fields total after comm)
	for len(fields) < 20 {
		fields = append(fields, "0")
	}
	line := fmt.Sprintf("%d (%s)", pid, comm)
	for _, f := range fields {
		line += " " + f
	}
	return line
}

func baseMock() *MockAPI {
	m := NewMockAPI()
	m.Files["meminfo"] = "MemTotal:       16777216 kB\nMemAvailable:   8000000 kB\n"
	m.Files["stat"] = "cpu  100 10 50 800 5 1 2 0 0 0\nbtime 1700000000\n"
	m.Dirs[""] = []string{"100"}
	return m
}

func TestEnumerateProcesses_Zombie(t *testing.T) {
	m := baseMock()
	m.Files["100/stat"] = statLine(100, "sleep", "Z", "1", "100")
	m.Now = 1700000100

	procs, err := EnumerateProcesses(m)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, "sleep <defunct>", procs[0].Command)
}

func TestEnumerateProcesses_DeadProcessDiscarded(t *testing.T) {
	m := baseMock()
	m.Files["100/stat"] = statLine(100, "gone", "X", "1", "100")

	procs, err := EnumerateProcesses(m)
	require.NoError(t, err)
	assert.Empty(t, procs)
}

func TestEnumerateProcesses_NoRssAnon_KernelThread(t *testing.T) {
	m := baseMock()
	m.Files["100/stat"] = statLine(100, "kworker", "S", "2", "100")
	// no 100/status entry at all -> HasRssAnon false, RssAnonKiB 0

	procs, err := EnumerateProcesses(m)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.False(t, procs[0].HasRssAnon)
	assert.Equal(t, uint64(0), procs[0].RssAnonKiB)
}

func TestEnumerateProcesses_MissingPerProcessFile_SilentlySkipped(t *testing.T) {
	m := baseMock()
	m.Dirs[""] = []string{"100", "200"}
	m.Files["100/stat"] = statLine(100, "ok", "S", "1", "100")
	// 200/stat intentionally absent

	procs, err := EnumerateProcesses(m)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, 100, procs[0].PID)
}

func TestReadMemory_MissingTotalFails(t *testing.T) {
	m := NewMockAPI()
	m.Files["meminfo"] = "MemFree: 100 kB\n"
	_, err := ReadMemory(m)
	assert.ErrorIs(t, err, ErrNoMemTotal)
}

func TestReadCPUInventory_DialectX(t *testing.T) {
	m := NewMockAPI()
	m.Files["cpuinfo"] = "processor\t: 0\nmodel name\t: Xeon\nphysical id\t: 0\nsiblings\t: 2\ncpu cores\t: 1\n" +
		"processor\t: 1\nmodel name\t: Xeon\nphysical id\t: 0\nsiblings\t: 2\ncpu cores\t: 1\n" +
		"processor\t: 2\nmodel name\t: Xeon\nphysical id\t: 1\nsiblings\t: 2\ncpu cores\t: 1\n" +
		"processor\t: 3\nmodel name\t: Xeon\nphysical id\t: 1\nsiblings\t: 2\ncpu cores\t: 1\n"
	inv, err := ReadCPUInventory(m)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.Sockets)
	assert.Equal(t, 1, inv.CoresPerSocket)
	assert.Equal(t, 2, inv.ThreadsPerCore)
	assert.Len(t, inv.CoreModels, 4)
}

func TestReadCPUInventory_DialectA(t *testing.T) {
	m := NewMockAPI()
	m.Files["cpuinfo"] = "processor\t: 0\nmodel name\t: ARM\n" +
		"processor\t: 1\nmodel name\t: ARM\n"
	inv, err := ReadCPUInventory(m)
	require.NoError(t, err)
	assert.Equal(t, 1, inv.Sockets)
	assert.Equal(t, 2, inv.CoresPerSocket)
	assert.Equal(t, 1, inv.ThreadsPerCore)
}

func TestReadLoadAvg(t *testing.T) {
	m := NewMockAPI()
	m.Files["loadavg"] = "0.50 0.40 0.30 3/120 9999\n"
	l, err := ReadLoadAvg(m)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, l.Load1, 1e-9)
	assert.Equal(t, 3, l.Runnable)
	assert.Equal(t, 120, l.Existing)
}
