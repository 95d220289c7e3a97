package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"doppel/internal/config"
	"doppel/internal/health"
	"doppel/internal/jobs"
	"doppel/internal/logging"
	"doppel/internal/transport"
	"doppel/internal/workspace"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "doppeld.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		log.Fatalf("open job store: %v", err)
	}
	defer store.Close()

	manager, err := workspace.NewManager(cfg.Paths.WorkspaceDir)
	if err != nil {
		log.Fatalf("init workspace manager: %v", err)
	}
	sweepStaleWorkspaces(cfg, manager, logger)

	orchestrator, err := buildOrchestrator(cfg, store, manager, logger)
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}

	queue, err := buildQueue(ctx, cfg)
	if err != nil {
		log.Fatalf("connect queue: %v", err)
	}
	defer queue.Close()

	consumer, err := transport.NewConsumer(queue, orchestrator, logger,
		time.Duration(cfg.Queue.ErrorRetryInterval)*time.Second)
	if err != nil {
		log.Fatalf("build consumer: %v", err)
	}

	healthSrv, err := health.NewServer(cfg.Paths.HealthBind, func(ctx context.Context) error {
		return store.Ping(ctx)
	}, logger)
	if err != nil {
		log.Fatalf("build health server: %v", err)
	}
	if err := healthSrv.Start(ctx); err != nil {
		log.Fatalf("start health server: %v", err)
	}
	defer healthSrv.Stop()

	logger.Info("doppeld started",
		logging.String("transport", cfg.Queue.Transport),
		logging.String("queue", cfg.Queue.Name))

	if err := consumer.Run(ctx); err != nil {
		logger.Error("consumer exited", logging.Error(err))
	}

	logger.Info("doppeld shutting down")
}

func sweepStaleWorkspaces(cfg *config.Config, manager *workspace.Manager, logger *slog.Logger) {
	maxAge := time.Duration(cfg.Workflow.WorkspaceMaxAgeHours) * time.Hour
	if maxAge <= 0 {
		return
	}
	result := workspace.CleanStale(manager.Root(), maxAge, logger)
	if len(result.Removed) > 0 {
		logger.Info("reclaimed stale workspaces", logging.Int("count", len(result.Removed)))
	}
}
