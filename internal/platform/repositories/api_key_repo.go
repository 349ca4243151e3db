package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"teamsync/internal/platform/models"
)

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(key *models.APIKey) error {
	if key.ID == "" {
		key.ID = "key_" + uuid.New().String()
	}
	key.CreatedAt = time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO api_keys (id, organization_id, user_id, name, key_hash, key_prefix, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, key.ID, key.OrganizationID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.ExpiresAt, key.CreatedAt)
	return err
}

// ListByPrefix returns candidate keys for bcrypt comparison. The prefix is
// indexed but not unique, so callers check each candidate's hash.
func (r *APIKeyRepository) ListByPrefix(prefix string) ([]*models.APIKey, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, user_id, name, key_hash, key_prefix, last_used_at, expires_at, revoked_at, created_at
		FROM api_keys WHERE key_prefix = ?
	`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAPIKeys(rows)
}

func (r *APIKeyRepository) ListByOrg(orgID string) ([]*models.APIKey, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, user_id, name, key_hash, key_prefix, last_used_at, expires_at, revoked_at, created_at
		FROM api_keys WHERE organization_id = ? ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAPIKeys(rows)
}

func (r *APIKeyRepository) Revoke(orgID, id string) error {
	_, err := r.db.Exec(`UPDATE api_keys SET revoked_at = ? WHERE organization_id = ? AND id = ?`, time.Now().Unix(), orgID, id)
	return err
}

func (r *APIKeyRepository) UpdateLastUsed(id string) error {
	_, err := r.db.Exec(`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

func collectAPIKeys(rows *sql.Rows) ([]*models.APIKey, error) {
	var keys []*models.APIKey
	for rows.Next() {
		k := &models.APIKey{}
		var lastUsedAt, expiresAt, revokedAt sql.NullInt64
		if err := rows.Scan(&k.ID, &k.OrganizationID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &lastUsedAt, &expiresAt, &revokedAt, &k.CreatedAt); err != nil {
			return nil, err
		}
		if lastUsedAt.Valid {
			k.LastUsedAt = &lastUsedAt.Int64
		}
		if expiresAt.Valid {
			k.ExpiresAt = &expiresAt.Int64
		}
		if revokedAt.Valid {
			k.RevokedAt = &revokedAt.Int64
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
