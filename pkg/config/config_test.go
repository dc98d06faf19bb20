package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/sonar/pkg/cadence"
)

func writeIni(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sonar.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ParsesGlobalAndProbeSections(t *testing.T) {
	path := writeIni(t, `
[global]
cluster = mycluster
hostname = node01
lock-directory = /var/run/sonar
token = secret

[sample]
cadence = 30s
min-cpu-percent = 0.5
exclude-user = root

[sysinfo]
cadence = 1h

[jobs]
cadence = 30m
window-minutes = 120

[cluster]
cadence = 10m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mycluster", cfg.Global.Cluster)
	assert.Equal(t, "node01", cfg.Global.Hostname)
	assert.Equal(t, "/var/run/sonar", cfg.Global.LockDir)
	assert.Equal(t, "secret", cfg.Global.Token)

	assert.True(t, cfg.Sample.Enabled)
	assert.Equal(t, cadence.Duration{Unit: cadence.Seconds, N: 30}, cfg.Sample.Cadence)
	assert.Equal(t, 0.5, cfg.Sample.MinCPUPct)
	assert.Equal(t, "root", cfg.Sample.ExcludeUser)

	assert.True(t, cfg.Sysinfo.Enabled)
	assert.Equal(t, cadence.Duration{Unit: cadence.Hours, N: 1}, cfg.Sysinfo.Cadence)

	assert.True(t, cfg.Jobs.Enabled)
	assert.Equal(t, 120, cfg.Jobs.Window)

	assert.True(t, cfg.Cluster.Enabled)
}

func TestLoad_SectionWithoutCadenceIsDisabled(t *testing.T) {
	path := writeIni(t, `
[global]
cluster = mycluster

[sample]
enable = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Sample.Enabled)
}

func TestLoad_BrokerWindowParsed(t *testing.T) {
	path := writeIni(t, `
[global]
cluster = mycluster

[broker]
host = nats://localhost:4222
topic = sonar
window = 15s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nats://localhost:4222", cfg.Broker.Host)
	assert.Equal(t, cadence.Duration{Unit: cadence.Seconds, N: 15}, cfg.Broker.Window)
}

func TestLoad_RejectsBadCadence(t *testing.T) {
	path := writeIni(t, `
[global]
cluster = mycluster

[sample]
cadence = 7m
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.ini"))
	assert.Error(t, err)
}
