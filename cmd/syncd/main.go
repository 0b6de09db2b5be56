package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Teja-9024/black-bus/internal/config"
	"github.com/Teja-9024/black-bus/internal/remote"
	"github.com/Teja-9024/black-bus/internal/store"
	"github.com/Teja-9024/black-bus/internal/syncer"
	"github.com/Teja-9024/black-bus/pkg/infra"
	"github.com/Teja-9024/black-bus/pkg/metrics"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg)
	slog.SetDefault(logger)
	defer infra.CloseLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Fatal error opening local store", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	client := remote.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, logger)
	engine := syncer.NewEngine(st, st, client, cfg.BatchSize, logger)

	go serveMetrics(cfg.MetricsAddr, logger)
	go runProbe(ctx, engine, client, cfg, logger)

	slog.Info("🚀 Offline sync daemon started",
		"pid", os.Getpid(),
		"db", cfg.DBPath,
		"api", cfg.APIBaseURL,
	)

	runMainLoop(ctx, engine, st, cfg)
}

// runMainLoop periodically re-drains the outbox while reachable, so jobs that
// failed during the last connectivity-triggered pass are not stranded until
// the next network flap. It also refreshes the backlog gauges.
func runMainLoop(ctx context.Context, engine *syncer.Engine, st *store.Store, cfg *config.Config) {
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("👋 Shutting down")
			return
		case <-ticker.C:
			if engine.Online() {
				if err := engine.TriggerSync(ctx); err != nil && ctx.Err() == nil {
					slog.Error("Periodic drain failed", "error", err)
				}
			}
			observeBacklog(ctx, st)
		}
	}
}

// runProbe derives the reachability signal the engine consumes. A response of
// any status counts as reachable; only transport-level failures mean offline.
func runProbe(ctx context.Context, engine *syncer.Engine, client *remote.Client, cfg *config.Config, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_, err := client.Do(probeCtx, http.MethodGet, cfg.ProbePath, nil, nil)
			cancel()

			online := err == nil || !remote.IsNetworkError(err)
			if !online {
				logger.Debug("Reachability probe failed", "error", err)
			}
			engine.SetOnline(ctx, online)
		}
	}
}

func observeBacklog(ctx context.Context, st *store.Store) {
	if n, err := st.PendingCount(ctx); err == nil {
		metrics.OutboxBacklog.Set(float64(n))
	}
	if age, err := st.OldestJobAge(ctx); err == nil {
		metrics.OutboxOldestAge.Set(age.Seconds())
	}
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics listener stopped", "error", err)
	}
}
