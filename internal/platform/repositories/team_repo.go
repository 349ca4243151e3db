package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"teamsync/internal/platform/models"
)

type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(team *models.Team) error {
	if team.ID == "" {
		team.ID = "team_" + uuid.New().String()
	}
	now := time.Now().Unix()
	team.CreatedAt = now
	team.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO teams (id, organization_id, name, description, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, team.ID, team.OrganizationID, team.Name, team.Description, team.CreatedBy, team.CreatedAt, team.UpdatedAt)
	return err
}

func (r *TeamRepository) GetByID(orgID, teamID string) (*models.Team, error) {
	t := &models.Team{}
	var description sql.NullString
	var createdBy sql.NullString
	err := r.db.QueryRow(`
		SELECT id, organization_id, name, description, created_by, created_at, updated_at
		FROM teams WHERE organization_id = ? AND id = ?
	`, orgID, teamID).Scan(&t.ID, &t.OrganizationID, &t.Name, &description, &createdBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if description.Valid {
		t.Description = description.String
	}
	if createdBy.Valid {
		t.CreatedBy = &createdBy.String
	}
	return t, nil
}

func (r *TeamRepository) ListByOrg(orgID string) ([]*models.Team, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, name, description, created_by, created_at, updated_at
		FROM teams WHERE organization_id = ? ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		t := &models.Team{}
		var description sql.NullString
		var createdBy sql.NullString
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.Name, &description, &createdBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if description.Valid {
			t.Description = description.String
		}
		if createdBy.Valid {
			t.CreatedBy = &createdBy.String
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) CountByOrg(orgID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM teams WHERE organization_id = ?`, orgID).Scan(&count)
	return count, err
}

func (r *TeamRepository) Update(team *models.Team) error {
	team.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE teams SET name = ?, description = ?, updated_at = ?
		WHERE organization_id = ? AND id = ?
	`, team.Name, team.Description, team.UpdatedAt, team.OrganizationID, team.ID)
	return err
}

func (r *TeamRepository) Delete(orgID, teamID string) error {
	if _, err := r.db.Exec(`DELETE FROM team_members WHERE team_id = ?`, teamID); err != nil {
		return err
	}
	_, err := r.db.Exec(`DELETE FROM teams WHERE organization_id = ? AND id = ?`, orgID, teamID)
	return err
}

func (r *TeamRepository) AddMember(tm *models.TeamMember) error {
	if tm.ID == "" {
		tm.ID = "tmem_" + uuid.New().String()
	}
	tm.AddedAt = time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO team_members (id, team_id, user_id, added_by, added_at)
		VALUES (?, ?, ?, ?, ?)
	`, tm.ID, tm.TeamID, tm.UserID, tm.AddedBy, tm.AddedAt)
	return err
}

func (r *TeamRepository) RemoveMember(teamID, userID string) error {
	_, err := r.db.Exec(`DELETE FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID)
	return err
}

func (r *TeamRepository) ListMembers(teamID string) ([]*models.TeamMember, error) {
	rows, err := r.db.Query(`
		SELECT id, team_id, user_id, added_by, added_at
		FROM team_members WHERE team_id = ? ORDER BY added_at ASC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.TeamMember
	for rows.Next() {
		tm := &models.TeamMember{}
		var addedBy sql.NullString
		if err := rows.Scan(&tm.ID, &tm.TeamID, &tm.UserID, &addedBy, &tm.AddedAt); err != nil {
			return nil, err
		}
		if addedBy.Valid {
			tm.AddedBy = &addedBy.String
		}
		members = append(members, tm)
	}
	return members, rows.Err()
}
