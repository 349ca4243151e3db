package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"teamsync/internal/platform/models"
)

// WebhookRepository is the endpoint registry. Every query is scoped by
// organization_id; outcome updates are single-row statements so concurrent
// deliveries to different endpoints never interfere.
type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(endpoint *models.WebhookEndpoint) error {
	if endpoint.ID == "" {
		endpoint.ID = "wh_" + uuid.New().String()
	}
	now := time.Now().Unix()
	endpoint.CreatedAt = now
	endpoint.UpdatedAt = now

	eventsJSON, err := json.Marshal(endpoint.Events)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO webhook_endpoints (id, organization_id, url, events, secret, is_active, failure_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, endpoint.ID, endpoint.OrganizationID, endpoint.URL, string(eventsJSON), endpoint.Secret, endpoint.IsActive, endpoint.CreatedAt, endpoint.UpdatedAt)
	return err
}

func (r *WebhookRepository) GetByID(orgID, id string) (*models.WebhookEndpoint, error) {
	row := r.db.QueryRow(`
		SELECT id, organization_id, url, events, secret, is_active, last_triggered_at, failure_count, created_at, updated_at
		FROM webhook_endpoints WHERE organization_id = ? AND id = ?
	`, orgID, id)

	endpoint, err := scanEndpoint(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return endpoint, nil
}

// ListByOrg returns every endpoint for the organization with the secret
// stripped; secrets leave the store only for delivery and at creation.
func (r *WebhookRepository) ListByOrg(orgID string) ([]*models.WebhookEndpoint, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, url, events, secret, is_active, last_triggered_at, failure_count, created_at, updated_at
		FROM webhook_endpoints WHERE organization_id = ? ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	endpoints, err := collectEndpoints(rows)
	if err != nil {
		return nil, err
	}
	for _, e := range endpoints {
		e.Secret = ""
	}
	return endpoints, nil
}

// ListActive returns the delivery candidates for one organization. An empty
// slice, not an error, when the organization has none.
func (r *WebhookRepository) ListActive(orgID string) ([]*models.WebhookEndpoint, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, url, events, secret, is_active, last_triggered_at, failure_count, created_at, updated_at
		FROM webhook_endpoints WHERE organization_id = ? AND is_active = 1
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEndpoints(rows)
}

func (r *WebhookRepository) Update(endpoint *models.WebhookEndpoint) error {
	endpoint.UpdatedAt = time.Now().Unix()

	eventsJSON, err := json.Marshal(endpoint.Events)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		UPDATE webhook_endpoints SET url = ?, events = ?, is_active = ?, updated_at = ?
		WHERE organization_id = ? AND id = ?
	`, endpoint.URL, string(eventsJSON), endpoint.IsActive, endpoint.UpdatedAt, endpoint.OrganizationID, endpoint.ID)
	return err
}

// Delete is a hard delete, no tombstone.
func (r *WebhookRepository) Delete(orgID, id string) error {
	_, err := r.db.Exec(`DELETE FROM webhook_endpoints WHERE organization_id = ? AND id = ?`, orgID, id)
	return err
}

// RecordSuccess sets last_triggered_at to the delivery time. Last write
// wins; each delivery is attempted at most once so no ordering is needed.
func (r *WebhookRepository) RecordSuccess(endpointID string, deliveredAt time.Time) error {
	_, err := r.db.Exec(`UPDATE webhook_endpoints SET last_triggered_at = ? WHERE id = ?`, deliveredAt.Unix(), endpointID)
	return err
}

// RecordFailure increments the failure counter by exactly one. The counter
// is advisory and never read to auto-disable an endpoint.
func (r *WebhookRepository) RecordFailure(endpointID string) error {
	_, err := r.db.Exec(`UPDATE webhook_endpoints SET failure_count = failure_count + 1 WHERE id = ?`, endpointID)
	return err
}

// ListFailing returns active endpoints whose failure counter is at or above
// the threshold, for the review worker.
func (r *WebhookRepository) ListFailing(threshold int) ([]*models.WebhookEndpoint, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, url, events, secret, is_active, last_triggered_at, failure_count, created_at, updated_at
		FROM webhook_endpoints WHERE is_active = 1 AND failure_count >= ?
	`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEndpoints(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEndpoint(row rowScanner) (*models.WebhookEndpoint, error) {
	e := &models.WebhookEndpoint{}
	var eventsStr string
	var lastTriggeredAt sql.NullInt64

	err := row.Scan(&e.ID, &e.OrganizationID, &e.URL, &eventsStr, &e.Secret, &e.IsActive, &lastTriggeredAt, &e.FailureCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastTriggeredAt.Valid {
		e.LastTriggeredAt = &lastTriggeredAt.Int64
	}
	if err := json.Unmarshal([]byte(eventsStr), &e.Events); err != nil {
		return nil, err
	}
	return e, nil
}

func collectEndpoints(rows *sql.Rows) ([]*models.WebhookEndpoint, error) {
	var endpoints []*models.WebhookEndpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, e)
	}
	return endpoints, rows.Err()
}
