package rowpub

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/edgeflare/rowpub/pkg/metrics"
	"github.com/edgeflare/rowpub/pkg/pgx"
	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	prometheusEnabled bool
	prometheusAddr    string
)

var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"r"},
	Short:   "Run the pipeline",
	Long:    `Read every row of the configured source and publish it through each configured step.`,
	RunE:    runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// flags override the config file only when given
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics.Enabled = prometheusEnabled
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr = prometheusAddr
	}

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	if cfg.Metrics.Enabled {
		metrics.StartPrometheusServer(metricsCtx, &wg, &metrics.PromServerOpts{Addr: cfg.Metrics.Addr, Logger: logger})
	}
	defer func() {
		stopMetrics()
		waitShutdown(&wg, 10*time.Second)
	}()

	pools := pgx.NewPools()
	defer pools.Close()

	src, err := source.Open(ctx, cfg.Pipeline.Source, pools)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	m := pipeline.NewManager(pipeline.WithLogger(logger))

	diags := m.Check(&cfg.Pipeline, src.Schema())
	for _, d := range diags {
		if d.Severity == pipeline.SeverityError {
			logger.Error("invalid step", zap.String("step", d.Step), zap.String("message", d.Message))
		}
	}
	if pipeline.HasErrors(diags) {
		return fmt.Errorf("pipeline %s is not valid", cfg.Pipeline.Name)
	}

	start := time.Now()
	stats, err := m.Run(ctx, &cfg.Pipeline, src)
	logger.Info("pipeline finished",
		zap.String("pipeline", cfg.Pipeline.Name),
		zap.Int64("read", stats.Read),
		zap.Int64("published", stats.Published),
		zap.Int64("failed", stats.Failed),
		zap.Int64("dropped", stats.Dropped),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", cfg.Pipeline.Name, err)
	}
	return nil
}

// waitShutdown waits for wg, giving up after timeout.
func waitShutdown(wg *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("shutdown timed out", zap.Duration("timeout", timeout))
	}
}

func init() {
	runCmd.Flags().BoolVar(&prometheusEnabled, "metrics", false, "Enable Prometheus metrics server")
	runCmd.Flags().StringVar(&prometheusAddr, "metrics-addr", ":9100", "Prometheus metrics server address")
}
