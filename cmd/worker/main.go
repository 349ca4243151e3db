package main

import (
	stdlog "log"
	"time"

	"github.com/rs/zerolog/log"

	"teamsync/internal/pkg/logger"
	"teamsync/internal/platform/config"
	"teamsync/internal/platform/database"
	"teamsync/internal/platform/repositories"
	"teamsync/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		stdlog.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	webhookRepo := repositories.NewWebhookRepository(db)
	activityRepo := repositories.NewActivityRepository(db)

	log.Info().Msg("starting background workers")

	go runFailureReportWorker(webhookRepo, cfg.Webhooks.FailureAlertThreshold)
	go runActivityPruneWorker(activityRepo, cfg.Retention.ActivityDays)

	select {}
}

func runFailureReportWorker(repo *repositories.WebhookRepository, threshold int) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if err := workers.ReportFailingEndpoints(repo, threshold); err != nil {
			log.Error().Err(err).Msg("failure report worker error")
		}
	}
}

func runActivityPruneWorker(repo *repositories.ActivityRepository, retentionDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := workers.PruneActivityLogs(repo, retentionDays); err != nil {
			log.Error().Err(err).Msg("activity prune worker error")
		}
	}
}
