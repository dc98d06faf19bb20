//go:build linux

package job

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ja7ad/sonar/pkg/system/procfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnyAttributor_UsesSlurmCgroupWhenPresent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "42"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "42", "cgroup"),
		[]byte("0::/system.slice/slurmstepd.scope/job_1392969/step_0/user/task_0\n"), 0o644))

	a := AnyAttributor{}
	id, isSlurm := a.JobIDFromPID(root, 42, nil)
	assert.Equal(t, int64(1392969), id)
	assert.True(t, isSlurm)
}

func TestAnyAttributor_FallsBackToPgrpWithoutCgroupMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "42"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "42", "cgroup"), []byte("no marker here\n"), 0o644))

	processes := map[int]procfs.Process{42: {PID: 42, PGRP: 7}}

	a := AnyAttributor{ForceSlurm: true}
	id, isSlurm := a.JobIDFromPID(root, 42, processes)
	assert.Equal(t, int64(7), id)
	assert.True(t, isSlurm)

	b := AnyAttributor{ForceSlurm: false}
	id2, isSlurm2 := b.JobIDFromPID(root, 42, processes)
	assert.Equal(t, int64(7), id2)
	assert.False(t, isSlurm2)
}

func TestAnyAttributor_UnknownProcessIsJobZero(t *testing.T) {
	root := t.TempDir()
	a := AnyAttributor{}
	id, isSlurm := a.JobIDFromPID(root, 999, nil)
	assert.Equal(t, int64(0), id)
	assert.False(t, isSlurm)
}
