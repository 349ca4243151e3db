package models

// WebhookEndpoint is one registered delivery target. ID and OrganizationID
// are immutable after creation; Secret is set exactly once and returned to
// the caller only in the create response.
type WebhookEndpoint struct {
	ID              string   `json:"id"`
	OrganizationID  string   `json:"organization_id"`
	URL             string   `json:"url"`
	Events          []string `json:"events"` // JSON array in DB, "*" means all
	Secret          string   `json:"secret,omitempty"`
	IsActive        bool     `json:"is_active"`
	LastTriggeredAt *int64   `json:"last_triggered_at,omitempty"`
	FailureCount    int      `json:"failure_count"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}
