package main

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/cirocosta/ether-exporter/pkg/collector"
	"github.com/cirocosta/ether-exporter/pkg/config"
	"github.com/cirocosta/ether-exporter/pkg/ether"
	"github.com/cirocosta/ether-exporter/pkg/exporter"
)

type command struct{}

func (c *command) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ether-exporter",
		Short:        "Prometheus exporter for ethereum node metrics",
		SilenceUsage: true,
		RunE:         c.RunE,
	}

	config.BindFlags(cmd.Flags())
	_ = cmd.MarkFlagFilename("config", "yml", "yaml")
	_ = cmd.MarkFlagDirname("prom-folder")

	return cmd
}

func (c *command) RunE(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLogger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("new logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	log := zapr.NewLogger(zapLogger)
	log.V(1).Info("loaded settings", "config", fmt.Sprintf("%+v", *cfg))

	client, err := ether.Dial(cfg.EtherURI, ether.WithTimeout(cfg.RPCTimeout))
	if err != nil {
		return fmt.Errorf("new client '%s': %w", cfg.EtherURI, err)
	}
	defer client.Close()

	registry, err := newRegistry(cfg, client, log)
	if err != nil {
		return fmt.Errorf("new registry: %w", err)
	}

	switch cfg.Export {
	case config.ExportHTTP:
		return c.serve(ctx, cfg, registry, log)
	case config.ExportText:
		return c.write(ctx, cfg, registry, log)
	default:
		return fmt.Errorf("unknown export '%s'", cfg.Export)
	}
}

func (c *command) serve(
	ctx context.Context, cfg *config.Config,
	registry *prometheus.Registry, log logr.Logger,
) error {
	prometheusExporter, err := exporter.New(registry,
		exporter.WithListenAddress(cfg.ListenAddr()),
		exporter.WithTelemetryPath(cfg.TelemetryPath),
		exporter.WithLogger(log.WithName("exporter")),
	)
	if err != nil {
		return fmt.Errorf("new exporter: %w", err)
	}
	defer prometheusExporter.Close()

	err = prometheusExporter.Run(ctx)
	if err != nil {
		return fmt.Errorf("prometheus exporter run: %w", err)
	}

	return nil
}

func (c *command) write(
	ctx context.Context, cfg *config.Config,
	registry *prometheus.Registry, log logr.Logger,
) error {
	writer, err := exporter.NewWriter(cfg.TextfilePath(), registry,
		exporter.WithInterval(cfg.Interval),
		exporter.WithWriterLogger(log.WithName("textfile")),
	)
	if err != nil {
		return fmt.Errorf("new writer: %w", err)
	}

	err = writer.Run(ctx)
	if err != nil {
		return fmt.Errorf("textfile writer run: %w", err)
	}

	return nil
}

// newRegistry registers the collector of ether metrics, plus the Go runtime
// and process collectors when metrics are served over http. The textfile
// only ever carries the node's metrics.
//
func newRegistry(
	cfg *config.Config, node collector.Node, log logr.Logger,
) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()

	err := registry.Register(collector.New(node,
		collector.WithAccounts(cfg.EnableAccounts),
		collector.WithAdditionalAccounts(cfg.AdditionalAccounts),
		collector.WithBalanceConcurrency(cfg.BalanceConcurrency),
		collector.WithLogger(log.WithName("collector")),
	))
	if err != nil {
		return nil, fmt.Errorf("collector register: %w", err)
	}

	if cfg.Export != config.ExportHTTP {
		return registry, nil
	}

	err = registry.Register(collectors.NewGoCollector())
	if err != nil {
		return nil, fmt.Errorf("go collector register: %w", err)
	}

	err = registry.Register(collectors.NewProcessCollector(
		collectors.ProcessCollectorOpts{},
	))
	if err != nil {
		return nil, fmt.Errorf("process collector register: %w", err)
	}

	return registry, nil
}
