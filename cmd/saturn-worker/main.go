package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturn-sh/saturn/internal/config"
	"github.com/saturn-sh/saturn/pkg/broker"
	"github.com/saturn-sh/saturn/pkg/log"
	"github.com/saturn-sh/saturn/pkg/metrics"
)

// Version information, set via ldflags during build.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "saturn-worker",
	Short:   "Saturn worker: polls queues and runs pipelines against leased resources",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"saturn-worker version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides SATURN_LOG_LEVEL")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(healthzCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	cfg := config.Load()
	level := cfg.LogLevel
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		level = v
	}
	log.Init(log.Config{
		Level:      log.Level(level),
		JSONOutput: cfg.LogJSON,
	})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the worker, syncing against the configured control plane",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		b, err := broker.New(cfg)
		if err != nil {
			return fmt.Errorf("build broker: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		metricsSrv := &http.Server{Addr: cfg.MetricsAddr}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.Handle("/health", metrics.HealthHandler())
			mux.Handle("/ready", metrics.ReadyHandler())
			mux.Handle("/live", metrics.LivenessHandler())
			metricsSrv.Handler = mux
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
			}
		}()
		fmt.Printf("saturn-worker %s starting, worker_id=%s control_plane=%s\n", Version, cfg.WorkerID, cfg.ControlPlaneURL)
		fmt.Printf("metrics: http://%s/metrics\n", cfg.MetricsAddr)

		errCh := make(chan error, 1)
		go func() { errCh <- b.Run(ctx) }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("shutting down...")
			cancel()
		case err := <-errCh:
			if err != nil {
				fmt.Fprintf(os.Stderr, "broker stopped: %v\n", err)
			}
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = metricsSrv.Shutdown(shutdownCtx)
			shutdownCancel()
			return err
		}

		<-errCh
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsSrv.Shutdown(shutdownCtx)

		fmt.Println("shutdown complete")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("saturn-worker version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
		return nil
	},
}

var healthzCmd = &cobra.Command{
	Use:   "healthz",
	Short: "One-shot liveness probe against a running worker's metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/live", cfg.MetricsAddr))
		if err != nil {
			return fmt.Errorf("healthz: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("healthz: worker reported status %d", resp.StatusCode)
		}
		fmt.Println("ok")
		return nil
	},
}
