//go:build linux

package procfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePidMaxAPI struct {
	API
	value string
	err   error
}

func (f fakePidMaxAPI) ReadToString(path string) (string, error) {
	if path != "/proc/sys/kernel/pid_max" {
		return "", nil
	}
	return f.value, f.err
}

func TestPidMax_ParsesFileContents(t *testing.T) {
	assert.Equal(t, uint64(65536), PidMax(fakePidMaxAPI{value: "65536\n"}))
}

func TestPidMax_FallsBackOnUnreadableFile(t *testing.T) {
	assert.Equal(t, uint64(4194304), PidMax(fakePidMaxAPI{err: assertErr("boom")}))
}

func TestPidMax_FallsBackOnGarbage(t *testing.T) {
	assert.Equal(t, uint64(4194304), PidMax(fakePidMaxAPI{value: "not-a-number\n"}))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
