package workers

import (
	"time"

	"github.com/rs/zerolog/log"
	"teamsync/internal/platform/repositories"
)

// ReportFailingEndpoints surfaces endpoints whose failure counter crossed
// the threshold. The counter is advisory: endpoints are never disabled
// automatically, an operator reviews the log output.
func ReportFailingEndpoints(repo *repositories.WebhookRepository, threshold int) error {
	endpoints, err := repo.ListFailing(threshold)
	if err != nil {
		return err
	}

	for _, e := range endpoints {
		log.Warn().
			Str("endpoint_id", e.ID).
			Str("org_id", e.OrganizationID).
			Str("url", e.URL).
			Int("failure_count", e.FailureCount).
			Msg("webhook endpoint exceeds failure threshold, review recommended")
	}

	if len(endpoints) == 0 {
		log.Debug().Msg("no webhook endpoints above failure threshold")
	}
	return nil
}

// PruneActivityLogs removes activity entries older than the retention
// window.
func PruneActivityLogs(repo *repositories.ActivityRepository, retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed, err := repo.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("pruned activity logs")
	}
	return nil
}
