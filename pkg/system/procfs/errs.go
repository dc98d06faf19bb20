//go:build linux

package procfs

import "errors"

var (
	// ErrNoMemTotal indicates /proc/meminfo had no MemTotal line.
	ErrNoMemTotal = errors.New("procfs: no MemTotal in meminfo")

	// ErrNoBootTime indicates /proc/stat had no btime field.
	ErrNoBootTime = errors.New("procfs: no btime in stat")

	// ErrNoCPULine indicates /proc/stat had no aggregate cpu line.
	ErrNoCPULine = errors.New("procfs: no cpu line in stat")

	// ErrNoLoad indicates /proc/loadavg was malformed.
	ErrNoLoad = errors.New("procfs: malformed loadavg")

	// ErrNoCPUInfo indicates /proc/cpuinfo had no processor records.
	ErrNoCPUInfo = errors.New("procfs: no cpuinfo records")

	// ErrDeadProcess indicates the process stat line reported state X.
	ErrDeadProcess = errors.New("procfs: process is dead")
)
