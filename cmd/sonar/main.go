//go:build linux

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/sonar/pkg/config"
	"github.com/ja7ad/sonar/pkg/control"
	"github.com/ja7ad/sonar/pkg/envelope"
	"github.com/ja7ad/sonar/pkg/gpu"
	"github.com/ja7ad/sonar/pkg/inventory"
	"github.com/ja7ad/sonar/pkg/job"
	"github.com/ja7ad/sonar/pkg/pidmap"
	"github.com/ja7ad/sonar/pkg/sampler"
	"github.com/ja7ad/sonar/pkg/scheduler"
	"github.com/ja7ad/sonar/pkg/sink"
	"github.com/ja7ad/sonar/pkg/system/procfs"
)

const producerName = "sonar"
const producerVersion = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:   "sonar",
		Short: "Per-node telemetry agent for HPC clusters",
		Long: `sonar samples running processes (including GPU usage), node-wide
resources, static node inventory, and batch-scheduler state, and dispatches
the results to a message broker, a directory tree, or standard output.

* GitHub: https://github.com/ja7ad/sonar`,
	}

	root.AddCommand(newSampleCmd(), newSysinfoCmd(), newJobsCmd(), newClusterCmd(), newDaemonCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newSampleCmd() *cobra.Command {
	var rollup bool
	var minCPU, minMem float64

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print one process sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := procfs.NewRealAPI()
			handle := gpu.Probe()
			if handle != nil {
				defer handle.Close()
			}
			attrs, err := sampler.Sample(api, handle, job.NewAttributor(false), pidmap.New(procfs.PidMax(api)), sampler.Options{
				Node:     hostname(),
				ProcRoot: "/proc",
				RollUp:   rollup,
				Filter:   sampler.Filter{MinCPUPct: minCPU, MinMemPct: minMem},
			})
			if err != nil {
				return err
			}
			return printEnvelope(envelope.NewDataEnvelope(producerName, producerVersion, "", envelope.TypeSample, attrs))
		},
	}
	cmd.Flags().BoolVar(&rollup, "rollup", false, "group sibling processes under the same job into one record")
	cmd.Flags().Float64Var(&minCPU, "min-cpu-percent", 0, "drop processes under this cpu percent")
	cmd.Flags().Float64Var(&minMem, "min-mem-percent", 0, "drop processes under this memory percent")
	return cmd
}

func newSysinfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sysinfo",
		Short: "Print static node inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := procfs.NewRealAPI()
			handle := gpu.Probe()
			if handle != nil {
				defer handle.Close()
			}
			attrs, err := inventory.Describe(api, handle)
			if err != nil {
				return err
			}
			attrs.Node = hostname()
			return printEnvelope(envelope.NewDataEnvelope(producerName, producerVersion, "", envelope.TypeSysinfo, attrs))
		},
	}
}

func newJobsCmd() *cobra.Command {
	var windowMinutes int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Query the scheduler for recently terminated jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := scheduler.FetchJobs(cmd.Context(), scheduler.RealAPI{}, scheduler.Window{MinutesAgo: windowMinutes}, time.Now())
			if err != nil {
				return err
			}
			return printEnvelope(envelope.NewDataEnvelope(producerName, producerVersion, "", envelope.TypeJobs, attrs))
		},
	}
	cmd.Flags().IntVar(&windowMinutes, "window", 90, "sliding window, in minutes")
	return cmd
}

func newClusterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cluster",
		Short: "Query the scheduler for partitions and node state",
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := scheduler.FetchCluster(cmd.Context(), scheduler.RealAPI{})
			if err != nil {
				return err
			}
			return printEnvelope(envelope.NewDataEnvelope(producerName, producerVersion, "", envelope.TypeCluster, attrs))
		},
	}
}

func newDaemonCmd() *cobra.Command {
	var configPath string
	var forceSlurm bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run as a long-lived sampling daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), configPath, forceSlurm)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "/etc/sonar/sonar.ini", "path to the ini config file")
	cmd.Flags().BoolVar(&forceSlurm, "force-slurm", false, "treat this cluster as Slurm-managed even without a cgroup marker")
	return cmd
}

func runDaemon(ctx context.Context, configPath string, forceSlurm bool) error {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("sonar: load config: %w", err)
	}

	var interrupt atomic.Bool
	var out sink.Sink

	var lock *control.Lockfile
	if cfg.Global.LockDir != "" {
		lock = control.NewLockfile(cfg.Global.LockDir, hostname())
	}

	out = sink.NewStdioSink(hostname(), "sonar-control", os.Stdin, os.Stdout)
	defer out.Stop()

	loop := control.NewLoop(func(probe control.Probe, payload []byte, window time.Duration) {
		_ = out.Post(sink.Record{Tag: string(probe), Key: hostname(), Timestamp: time.Now(), Payload: payload})
	}, lock, &interrupt)

	api := procfs.NewRealAPI()
	attributor := job.NewAttributor(forceSlurm)
	pm := pidmap.New(procfs.PidMax(api))

	if cfg.Sample.Enabled {
		loop.RegisterProbe(control.ProbeSample, func(now time.Time) ([]byte, error) {
			if loop.Interrupted() {
				return nil, fmt.Errorf("sonar: interrupted")
			}
			handle := gpu.Probe()
			if handle != nil {
				defer handle.Close()
			}
			attrs, err := sampler.Sample(api, handle, attributor, pm, sampler.Options{
				Cluster:       cfg.Global.Cluster,
				Node:          hostname(),
				ProcRoot:      "/proc",
				ShortWindowMs: 100,
				Filter: sampler.Filter{
					MinCPUPct:   cfg.Sample.MinCPUPct,
					MinMemPct:   cfg.Sample.MinMemPct,
					MinCPUTime:  cfg.Sample.MinCPUTime,
					ExcludeUID:  cfg.Sample.ExcludeUID,
					ExcludeUser: cfg.Sample.ExcludeUser,
					ExcludeCmd:  cfg.Sample.ExcludeCmd,
				},
			})
			if err != nil {
				return nil, err
			}
			return json.Marshal(envelope.NewDataEnvelope(producerName, producerVersion, cfg.Global.Token, envelope.TypeSample, attrs))
		}, time.Duration(cfg.Sample.Cadence.ToSeconds())*time.Second)
		stop := control.StartTimer(loop.Events, control.ProbeSample, cfg.Sample.Cadence)
		defer stop()
	}

	if cfg.Sysinfo.Enabled {
		loop.RegisterProbe(control.ProbeSysinfo, func(now time.Time) ([]byte, error) {
			handle := gpu.Probe()
			if handle != nil {
				defer handle.Close()
			}
			attrs, err := inventory.Describe(api, handle)
			if err != nil {
				return nil, err
			}
			attrs.Node = hostname()
			return json.Marshal(envelope.NewDataEnvelope(producerName, producerVersion, cfg.Global.Token, envelope.TypeSysinfo, attrs))
		}, 0)
		stop := control.StartTimer(loop.Events, control.ProbeSysinfo, cfg.Sysinfo.Cadence)
		defer stop()
	}

	if cfg.Jobs.Enabled {
		loop.RegisterProbe(control.ProbeJobs, func(now time.Time) ([]byte, error) {
			attrs, err := scheduler.FetchJobs(ctx, scheduler.RealAPI{}, scheduler.Window{MinutesAgo: cfg.Jobs.Window}, now)
			if err != nil {
				return nil, err
			}
			return json.Marshal(envelope.NewDataEnvelope(producerName, producerVersion, cfg.Global.Token, envelope.TypeJobs, attrs))
		}, 0)
		stop := control.StartTimer(loop.Events, control.ProbeJobs, cfg.Jobs.Cadence)
		defer stop()
	}

	if cfg.Cluster.Enabled {
		loop.RegisterProbe(control.ProbeCluster, func(now time.Time) ([]byte, error) {
			attrs, err := scheduler.FetchCluster(ctx, scheduler.RealAPI{})
			if err != nil {
				return nil, err
			}
			return json.Marshal(envelope.NewDataEnvelope(producerName, producerVersion, cfg.Global.Token, envelope.TypeCluster, attrs))
		}, 0)
		stop := control.StartTimer(loop.Events, control.ProbeCluster, cfg.Cluster.Cadence)
		defer stop()
	}

	loop.WatchSignals()

	_, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return loop.Run(log)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func printEnvelope(env envelope.Envelope) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(env)
}
