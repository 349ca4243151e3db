package activity

import (
	"sync"

	"github.com/rs/zerolog/log"
	"teamsync/internal/platform/models"
	"teamsync/internal/platform/repositories"
)

// Recorder appends activity log entries off the request path. Like webhook
// delivery, logging is a side effect that never fails the operation that
// produced it.
type Recorder struct {
	repo *repositories.ActivityRepository
	wg   sync.WaitGroup
}

func NewRecorder(repo *repositories.ActivityRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(orgID string, userID *string, action string, metadata map[string]interface{}) {
	entry := &models.ActivityLog{
		OrganizationID: orgID,
		UserID:         userID,
		Action:         action,
		Metadata:       metadata,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.repo.Create(entry); err != nil {
			log.Warn().Err(err).Str("org_id", orgID).Str("action", action).
				Msg("failed to write activity log")
		}
	}()
}

// Wait blocks until pending writes finish; used during shutdown and tests.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
