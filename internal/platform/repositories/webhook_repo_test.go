package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"teamsync/internal/platform/models"
)

func endpointColumns() []string {
	return []string{"id", "organization_id", "url", "events", "secret", "is_active", "last_triggered_at", "failure_count", "created_at", "updated_at"}
}

func TestWebhookRepositoryListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now().Unix()
	rows := sqlmock.NewRows(endpointColumns()).
		AddRow("wh_1", "org_1", "https://example.com/a", `["team_created","team_deleted"]`, "whsec_a", true, nil, 0, now, now).
		AddRow("wh_2", "org_1", "https://example.com/b", `["*"]`, "whsec_b", true, now, 3, now, now)

	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE organization_id = \\? AND is_active = 1").
		WithArgs("org_1").
		WillReturnRows(rows)

	repo := NewWebhookRepository(db)
	endpoints, err := repo.ListActive("org_1")
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}

	if len(endpoints) != 2 {
		t.Fatalf("Expected 2 endpoints, got %d", len(endpoints))
	}
	if endpoints[0].Secret != "whsec_a" {
		t.Errorf("Expected secret to be retained for delivery, got %q", endpoints[0].Secret)
	}
	if len(endpoints[0].Events) != 2 || endpoints[0].Events[0] != "team_created" {
		t.Errorf("Unexpected events: %v", endpoints[0].Events)
	}
	if endpoints[0].LastTriggeredAt != nil {
		t.Error("Expected nil last_triggered_at for never-triggered endpoint")
	}
	if endpoints[1].LastTriggeredAt == nil || *endpoints[1].LastTriggeredAt != now {
		t.Error("Expected last_triggered_at to be populated")
	}
	if endpoints[1].FailureCount != 3 {
		t.Errorf("Expected failure count 3, got %d", endpoints[1].FailureCount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestWebhookRepositoryListActiveEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE organization_id = \\? AND is_active = 1").
		WithArgs("org_none").
		WillReturnRows(sqlmock.NewRows(endpointColumns()))

	repo := NewWebhookRepository(db)
	endpoints, err := repo.ListActive("org_none")
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(endpoints) != 0 {
		t.Errorf("Expected no endpoints, got %d", len(endpoints))
	}
}

func TestWebhookRepositoryListActiveQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints").
		WillReturnError(errors.New("disk I/O error"))

	repo := NewWebhookRepository(db)
	if _, err := repo.ListActive("org_1"); err == nil {
		t.Fatal("Expected error from failed query")
	}
}

func TestWebhookRepositoryListByOrgStripsSecrets(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now().Unix()
	rows := sqlmock.NewRows(endpointColumns()).
		AddRow("wh_1", "org_1", "https://example.com/a", `["*"]`, "whsec_a", false, nil, 0, now, now)

	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE organization_id = \\? ORDER BY created_at DESC").
		WithArgs("org_1").
		WillReturnRows(rows)

	repo := NewWebhookRepository(db)
	endpoints, err := repo.ListByOrg("org_1")
	if err != nil {
		t.Fatalf("ListByOrg failed: %v", err)
	}
	if len(endpoints) != 1 {
		t.Fatalf("Expected 1 endpoint, got %d", len(endpoints))
	}
	if endpoints[0].Secret != "" {
		t.Errorf("Expected secret stripped from listing, got %q", endpoints[0].Secret)
	}
}

func TestWebhookRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE organization_id = \\? AND id = \\?").
		WithArgs("org_1", "wh_missing").
		WillReturnRows(sqlmock.NewRows(endpointColumns()))

	repo := NewWebhookRepository(db)
	endpoint, err := repo.GetByID("org_1", "wh_missing")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if endpoint != nil {
		t.Error("Expected nil for missing endpoint")
	}
}

func TestWebhookRepositoryRecordSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	deliveredAt := time.Now()
	mock.ExpectExec("UPDATE webhook_endpoints SET last_triggered_at = \\? WHERE id = \\?").
		WithArgs(deliveredAt.Unix(), "wh_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewWebhookRepository(db)
	if err := repo.RecordSuccess("wh_1", deliveredAt); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestWebhookRepositoryRecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE webhook_endpoints SET failure_count = failure_count \\+ 1 WHERE id = \\?").
		WithArgs("wh_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewWebhookRepository(db)
	if err := repo.RecordFailure("wh_1"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestWebhookRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO webhook_endpoints").
		WithArgs(sqlmock.AnyArg(), "org_1", "https://example.com/hook", `["team_created"]`, "whsec_x", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewWebhookRepository(db)
	endpoint := &models.WebhookEndpoint{
		OrganizationID: "org_1",
		URL:            "https://example.com/hook",
		Events:         []string{"team_created"},
		Secret:         "whsec_x",
		IsActive:       true,
	}
	if err := repo.Create(endpoint); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if endpoint.ID == "" || endpoint.ID[:3] != "wh_" {
		t.Errorf("Expected generated wh_ id, got %q", endpoint.ID)
	}
	if endpoint.CreatedAt == 0 {
		t.Error("Expected created_at to be set")
	}
}

func TestWebhookRepositoryListFailing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now().Unix()
	rows := sqlmock.NewRows(endpointColumns()).
		AddRow("wh_bad", "org_1", "https://example.com/bad", `["*"]`, "whsec_bad", true, nil, 40, now, now)

	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE is_active = 1 AND failure_count >= \\?").
		WithArgs(25).
		WillReturnRows(rows)

	repo := NewWebhookRepository(db)
	endpoints, err := repo.ListFailing(25)
	if err != nil {
		t.Fatalf("ListFailing failed: %v", err)
	}
	if len(endpoints) != 1 || endpoints[0].ID != "wh_bad" {
		t.Fatalf("Unexpected result: %+v", endpoints)
	}
}
