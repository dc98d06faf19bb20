// Package config loads the agent's INI-like configuration file.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/ja7ad/sonar/pkg/cadence"
)

// Global holds process-wide settings from the [global] section.
type Global struct {
	Cluster   string
	Hostname  string
	LockDir   string
	Role      []string // node,login,...
	Token     string
	ConfigDir string
}

// Broker holds the [broker] section for the NATS sink.
type Broker struct {
	Host           string
	Topic          string
	Window         cadence.Duration
	CredentialFile string
}

// Debug holds the [debug] section.
type Debug struct {
	Verbose bool
	Dump    bool
}

// Probe holds the cadence and threshold knobs shared by [sample]/[sysinfo]/
// [jobs]/[cluster].
type Probe struct {
	Enabled    bool
	Cadence    cadence.Duration
	MinCPUPct  float64
	MinMemPct  float64
	MinCPUTime float64
	ExcludeUID int
	ExcludeUser string
	ExcludeCmd  string
	Window     int // minutes, jobs only
}

// Config is the fully parsed configuration file.
type Config struct {
	Global  Global
	Broker  Broker
	Debug   Debug
	Sample  Probe
	Sysinfo Probe
	Jobs    Probe
	Cluster Probe
}

// Load parses path with gopkg.in/ini.v1 and validates cadence fields.
func Load(path string) (*Config, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	cfg := &Config{}

	g := f.Section("global")
	cfg.Global.Cluster = g.Key("cluster").String()
	cfg.Global.Hostname = g.Key("hostname").String()
	cfg.Global.LockDir = g.Key("lock-directory").String()
	cfg.Global.Token = g.Key("token").String()
	cfg.Global.Role = g.Key("role").Strings(",")

	b := f.Section("broker")
	cfg.Broker.Host = b.Key("host").String()
	cfg.Broker.Topic = b.Key("topic").String()
	cfg.Broker.CredentialFile = b.Key("credential-file").String()
	if w := b.Key("window").String(); w != "" {
		d, err := cadence.Parse(w)
		if err != nil {
			return nil, fmt.Errorf("config: [broker] window: %w", err)
		}
		cfg.Broker.Window = d
	}

	d := f.Section("debug")
	cfg.Debug.Verbose = d.Key("verbose").MustBool(false)
	cfg.Debug.Dump = d.Key("dump").MustBool(false)

	probes := []struct {
		name   string
		target *Probe
	}{
		{"sample", &cfg.Sample},
		{"sysinfo", &cfg.Sysinfo},
		{"jobs", &cfg.Jobs},
		{"cluster", &cfg.Cluster},
	}
	for _, p := range probes {
		if err := loadProbe(f.Section(p.name), p.target, p.name == "jobs"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func loadProbe(s *ini.Section, p *Probe, lenient bool) error {
	p.Enabled = s.Key("enable").MustBool(s.HasKey("cadence"))
	if c := s.Key("cadence").String(); c != "" {
		d, err := cadence.Parse(c)
		if err != nil && !lenient {
			return fmt.Errorf("config: [%s] cadence: %w", s.Name(), err)
		}
		p.Cadence = d
	}
	p.MinCPUPct = s.Key("min-cpu-percent").MustFloat64(0)
	p.MinMemPct = s.Key("min-mem-percent").MustFloat64(0)
	p.MinCPUTime = s.Key("min-cpu-time").MustFloat64(0)
	p.ExcludeUID = s.Key("exclude-system-users").MustInt(1000)
	p.ExcludeUser = s.Key("exclude-user").String()
	p.ExcludeCmd = s.Key("exclude-command").String()
	p.Window = s.Key("window-minutes").MustInt(90)
	return nil
}
