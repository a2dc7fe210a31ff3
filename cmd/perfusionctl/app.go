package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"perfusioncore/internal/config"
	"perfusioncore/internal/core"
	"perfusioncore/internal/logging"
)

type storeOpener func(ctx context.Context, cfg core.StorageConfig, engine *core.RulesEngine, log zerolog.Logger) (core.PersistentStore, error)

type app struct {
	configPath  string
	dumpMetrics bool
	trace       bool

	stdout, stderr io.Writer
	cfg            *config.Config
	log            zerolog.Logger
	registry       *prometheus.Registry
	store          core.PersistentStore
	svc            *core.Service
	openStore      storeOpener
}

// run executes perfusionctl with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, log: zerolog.Nop(), openStore: core.OpenPersistentStore}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(context.Background())
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "perfusionctl",
		Short:         "Perfusion patient records and calculators",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.dumpMetrics {
				return a.writeMetrics()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "optional config file (yaml, json or toml)")
	root.PersistentFlags().BoolVar(&a.dumpMetrics, "metrics", false, "dump service metrics to stderr after the command")
	root.PersistentFlags().BoolVar(&a.trace, "trace", false, "write operation spans to stderr as JSON lines")
	root.AddCommand(a.patientCmd(), a.calcCmd(), a.importCmd())
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, a.stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.registry = prometheus.NewRegistry()
	return nil
}

// service opens the configured store on first use.
func (a *app) service(ctx context.Context) (*core.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	store, err := a.openStore(ctx, a.cfg.Storage(), core.NewDefaultRulesEngine(), a.log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	metrics, err := core.NewPrometheusMetricsRecorder(a.registry)
	if err != nil {
		return nil, err
	}
	opts := []core.Option{core.WithLogger(a.log), core.WithMetrics(metrics)}
	if a.trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(a.stderr)))
	}
	a.store = store
	a.svc = core.NewService(store, opts...)
	a.log.Debug().Str("driver", a.cfg.StorageDriver).Msg("store opened")
	return a.svc, nil
}

func (a *app) close() error {
	if c, ok := a.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type metricSample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  *float64          `json:"value,omitempty"`
	Count  *uint64           `json:"count,omitempty"`
	Sum    *float64          `json:"sum,omitempty"`
}

func (a *app) writeMetrics() error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	samples := []metricSample{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s := metricSample{Name: mf.GetName(), Labels: make(map[string]string, len(m.GetLabel()))}
			for _, lp := range m.GetLabel() {
				s.Labels[lp.GetName()] = lp.GetValue()
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				v := m.GetCounter().GetValue()
				s.Value = &v
			case dto.MetricType_HISTOGRAM:
				c, sum := m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
				s.Count, s.Sum = &c, &sum
			default:
				continue
			}
			samples = append(samples, s)
		}
	}
	enc := json.NewEncoder(a.stderr)
	return enc.Encode(map[string]any{"metrics": samples})
}
