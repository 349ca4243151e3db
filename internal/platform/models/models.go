package models

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

func IsValidRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin || role == RoleMember
}

type Organization struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MaxMembers int    `json:"max_members"`
	MaxTeams   int    `json:"max_teams"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

type Member struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	UserID         string  `json:"user_id"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	InvitedBy      *string `json:"invited_by,omitempty"`
	InvitedAt      int64   `json:"invited_at"`
	CreatedAt      int64   `json:"created_at"`
}

type Team struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	CreatedBy      *string `json:"created_by,omitempty"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`
}

type TeamMember struct {
	ID      string  `json:"id"`
	TeamID  string  `json:"team_id"`
	UserID  string  `json:"user_id"`
	AddedBy *string `json:"added_by,omitempty"`
	AddedAt int64   `json:"added_at"`
}

type ActivityLog struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	UserID         *string                `json:"user_id,omitempty"`
	Action         string                 `json:"action"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      int64                  `json:"created_at"`
}
