package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"teamsync/internal/platform/models"
)

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(org *models.Organization) error {
	if org.ID == "" {
		org.ID = "org_" + uuid.New().String()
	}
	now := time.Now().Unix()
	org.CreatedAt = now
	org.UpdatedAt = now
	if org.MaxMembers == 0 {
		org.MaxMembers = 100
	}
	if org.MaxTeams == 0 {
		org.MaxTeams = 25
	}

	_, err := r.db.Exec(`
		INSERT INTO organizations (id, name, max_members, max_teams, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, org.ID, org.Name, org.MaxMembers, org.MaxTeams, org.CreatedAt, org.UpdatedAt)
	return err
}

func (r *OrganizationRepository) GetByID(id string) (*models.Organization, error) {
	org := &models.Organization{}
	err := r.db.QueryRow(`
		SELECT id, name, max_members, max_teams, created_at, updated_at
		FROM organizations WHERE id = ?
	`, id).Scan(&org.ID, &org.Name, &org.MaxMembers, &org.MaxTeams, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

type MemberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(member *models.Member) error {
	if member.ID == "" {
		member.ID = "mem_" + uuid.New().String()
	}
	now := time.Now().Unix()
	member.InvitedAt = now
	member.CreatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO organization_members (id, organization_id, user_id, email, role, invited_by, invited_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, member.ID, member.OrganizationID, member.UserID, member.Email, member.Role, member.InvitedBy, member.InvitedAt, member.CreatedAt)
	return err
}

func (r *MemberRepository) GetByOrgAndUser(orgID, userID string) (*models.Member, error) {
	m := &models.Member{}
	var invitedBy sql.NullString
	err := r.db.QueryRow(`
		SELECT id, organization_id, user_id, email, role, invited_by, invited_at, created_at
		FROM organization_members WHERE organization_id = ? AND user_id = ?
	`, orgID, userID).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Email, &m.Role, &invitedBy, &m.InvitedAt, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if invitedBy.Valid {
		m.InvitedBy = &invitedBy.String
	}
	return m, nil
}

func (r *MemberRepository) GetByID(orgID, memberID string) (*models.Member, error) {
	m := &models.Member{}
	var invitedBy sql.NullString
	err := r.db.QueryRow(`
		SELECT id, organization_id, user_id, email, role, invited_by, invited_at, created_at
		FROM organization_members WHERE organization_id = ? AND id = ?
	`, orgID, memberID).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Email, &m.Role, &invitedBy, &m.InvitedAt, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if invitedBy.Valid {
		m.InvitedBy = &invitedBy.String
	}
	return m, nil
}

func (r *MemberRepository) ListByOrg(orgID string) ([]*models.Member, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, user_id, email, role, invited_by, invited_at, created_at
		FROM organization_members WHERE organization_id = ? ORDER BY created_at ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m := &models.Member{}
		var invitedBy sql.NullString
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Email, &m.Role, &invitedBy, &m.InvitedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		if invitedBy.Valid {
			m.InvitedBy = &invitedBy.String
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MemberRepository) CountByOrg(orgID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM organization_members WHERE organization_id = ?`, orgID).Scan(&count)
	return count, err
}

func (r *MemberRepository) UpdateRole(orgID, memberID, role string) error {
	_, err := r.db.Exec(`
		UPDATE organization_members SET role = ? WHERE organization_id = ? AND id = ?
	`, role, orgID, memberID)
	return err
}

func (r *MemberRepository) Delete(orgID, memberID string) error {
	_, err := r.db.Exec(`DELETE FROM organization_members WHERE organization_id = ? AND id = ?`, orgID, memberID)
	return err
}
