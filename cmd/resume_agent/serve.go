package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-compressor/internal/metrics"
	"github.com/jonathan/resume-compressor/internal/server"
)

var (
	servePort  int
	serveNoLLM bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the compression loop, line estimates, run history and Prometheus metrics.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to server.port)")
	serveCmd.Flags().BoolVar(&serveNoLLM, "no-llm", false, "Use rule-based review and skip model rewriting")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx := context.Background()
	m := metrics.New(prometheus.DefaultRegisterer)
	p, err := newPipeline(ctx, cmd, cfg, logger, serveNoLLM, m)
	if err != nil {
		return err
	}
	defer p.Close()

	srvCfg := server.Config{
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
		Pipeline:           p,
		Metrics:            m,
		Logger:             logger,
	}
	// only a live database serves history; a nil *db.DB must not become a non-nil interface
	if database := p.Database(); database != nil {
		srvCfg.Runs = database
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
