package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/julienschmidt/httprouter"

	apiContext "teamsync/internal/api/context"
	"teamsync/internal/api/middleware"
	"teamsync/internal/engine/activity"
	"teamsync/internal/engine/webhooks"
	"teamsync/internal/platform/models"
	"teamsync/internal/platform/repositories"
)

type stubTransport struct {
	outcome   webhooks.Outcome
	delivered []*webhooks.Envelope
}

func (s *stubTransport) Deliver(endpoint *models.WebhookEndpoint, envelope *webhooks.Envelope) webhooks.Outcome {
	s.delivered = append(s.delivered, envelope)
	return s.outcome
}

func adminRequest(method, target, body string, params httprouter.Params) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := context.WithValue(req.Context(), apiContext.Membership, &middleware.Membership{
		OrgID:  "org_1",
		UserID: "user_1",
		Role:   models.RoleAdmin,
	})
	ctx = context.WithValue(ctx, apiContext.Params, params)
	return req.WithContext(ctx)
}

func newWebhookHandler(t *testing.T) (*WebhookHandler, sqlmock.Sqlmock, *stubTransport, *activity.Recorder) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	transport := &stubTransport{outcome: webhooks.Outcome{Success: true, StatusCode: 200}}
	recorder := activity.NewRecorder(repositories.NewActivityRepository(db))
	handler := NewWebhookHandler(repositories.NewWebhookRepository(db), transport, recorder)
	return handler, mock, transport, recorder
}

func TestWebhookHandlerCreate(t *testing.T) {
	handler, mock, _, recorder := newWebhookHandler(t)

	mock.ExpectExec("INSERT INTO webhook_endpoints").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO activity_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	body := `{"url":"https://example.com/hooks","events":["team_created","*"]}`
	rec := httptest.NewRecorder()
	handler.Create(rec, adminRequest(http.MethodPost, "/api/v1/organizations/org_1/webhooks", body, nil))
	recorder.Wait()

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var endpoint models.WebhookEndpoint
	if err := json.Unmarshal(rec.Body.Bytes(), &endpoint); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.HasPrefix(endpoint.ID, "wh_") {
		t.Errorf("Expected wh_ id, got %q", endpoint.ID)
	}
	if !strings.HasPrefix(endpoint.Secret, webhooks.SecretPrefix) {
		t.Errorf("Expected secret in create response, got %q", endpoint.Secret)
	}
	if !endpoint.IsActive {
		t.Error("Expected new endpoint to be active")
	}
}

func TestWebhookHandlerCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid body", `{not json`},
		{"bad url", `{"url":"ftp://example.com","events":["*"]}`},
		{"no events", `{"url":"https://example.com/hooks","events":[]}`},
		{"unknown event", `{"url":"https://example.com/hooks","events":["no_such_event"]}`},
		{"ping not subscribable", `{"url":"https://example.com/hooks","events":["ping"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, _, _ := newWebhookHandler(t)
			rec := httptest.NewRecorder()
			handler.Create(rec, adminRequest(http.MethodPost, "/api/v1/organizations/org_1/webhooks", tt.body, nil))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestWebhookHandlerGetStripsSecret(t *testing.T) {
	handler, mock, _, _ := newWebhookHandler(t)

	now := time.Now().Unix()
	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE organization_id = \\? AND id = \\?").
		WithArgs("org_1", "wh_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "url", "events", "secret", "is_active", "last_triggered_at", "failure_count", "created_at", "updated_at"}).
			AddRow("wh_1", "org_1", "https://example.com/hooks", `["*"]`, "whsec_secret", true, nil, 0, now, now))

	params := httprouter.Params{{Key: "webhook_id", Value: "wh_1"}}
	rec := httptest.NewRecorder()
	handler.Get(rec, adminRequest(http.MethodGet, "/api/v1/organizations/org_1/webhooks/wh_1", "", params))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "whsec_") {
		t.Error("Secret must not appear outside the create response")
	}
}

func TestWebhookHandlerGetNotFound(t *testing.T) {
	handler, mock, _, _ := newWebhookHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE organization_id = \\? AND id = \\?").
		WithArgs("org_1", "wh_missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "url", "events", "secret", "is_active", "last_triggered_at", "failure_count", "created_at", "updated_at"}))

	params := httprouter.Params{{Key: "webhook_id", Value: "wh_missing"}}
	rec := httptest.NewRecorder()
	handler.Get(rec, adminRequest(http.MethodGet, "/api/v1/organizations/org_1/webhooks/wh_missing", "", params))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestWebhookHandlerPing(t *testing.T) {
	handler, mock, transport, _ := newWebhookHandler(t)

	now := time.Now().Unix()
	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE organization_id = \\? AND id = \\?").
		WithArgs("org_1", "wh_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "url", "events", "secret", "is_active", "last_triggered_at", "failure_count", "created_at", "updated_at"}).
			AddRow("wh_1", "org_1", "https://example.com/hooks", `["team_created"]`, "whsec_secret", true, nil, 0, now, now))
	mock.ExpectExec("UPDATE webhook_endpoints SET last_triggered_at").
		WillReturnResult(sqlmock.NewResult(0, 1))

	params := httprouter.Params{{Key: "webhook_id", Value: "wh_1"}}
	rec := httptest.NewRecorder()
	handler.Ping(rec, adminRequest(http.MethodPost, "/api/v1/organizations/org_1/webhooks/wh_1/ping", "", params))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		DeliveryID string `json:"delivery_id"`
		Success    bool   `json:"success"`
		StatusCode int    `json:"status_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success || resp.StatusCode != 200 {
		t.Errorf("Unexpected outcome: %+v", resp)
	}
	if !strings.HasPrefix(resp.DeliveryID, "dlv_") {
		t.Errorf("Expected dlv_ delivery id, got %q", resp.DeliveryID)
	}

	// Ping goes straight to the endpoint even though it only subscribes to
	// team_created.
	if len(transport.delivered) != 1 || transport.delivered[0].Event != "ping" {
		t.Errorf("Expected one ping delivery, got %+v", transport.delivered)
	}
}

func TestWebhookHandlerPingFailureRecorded(t *testing.T) {
	handler, mock, transport, _ := newWebhookHandler(t)
	transport.outcome = webhooks.Outcome{Success: false, StatusCode: 503}

	now := time.Now().Unix()
	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE organization_id = \\? AND id = \\?").
		WithArgs("org_1", "wh_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "url", "events", "secret", "is_active", "last_triggered_at", "failure_count", "created_at", "updated_at"}).
			AddRow("wh_1", "org_1", "https://example.com/hooks", `["*"]`, "whsec_secret", true, nil, 2, now, now))
	mock.ExpectExec("UPDATE webhook_endpoints SET failure_count = failure_count \\+ 1").
		WithArgs("wh_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	params := httprouter.Params{{Key: "webhook_id", Value: "wh_1"}}
	rec := httptest.NewRecorder()
	handler.Ping(rec, adminRequest(http.MethodPost, "/api/v1/organizations/org_1/webhooks/wh_1/ping", "", params))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
