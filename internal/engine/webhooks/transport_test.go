package webhooks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamsync/internal/platform/models"
)

func TestHTTPTransportDeliver(t *testing.T) {
	var (
		gotHeaders http.Header
		gotBody    []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	endpoint := &models.WebhookEndpoint{
		ID:     "wh_1",
		URL:    server.URL,
		Secret: "whsec_testsecret",
	}
	envelope := NewEnvelope(EventTeamCreated, time.Now(), map[string]string{"team_id": "team_1"})

	transport := NewHTTPTransport(5*time.Second, false)
	outcome := transport.Deliver(endpoint, envelope)

	require.True(t, outcome.Success)
	assert.Equal(t, http.StatusOK, outcome.StatusCode)
	assert.NoError(t, outcome.Err)

	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "team_created", gotHeaders.Get("X-Webhook-Event"))
	assert.Equal(t, "whsec_testsecret", gotHeaders.Get("X-Webhook-Signature"))
	assert.Empty(t, gotHeaders.Get("X-Webhook-Hmac-Sha256"))

	ts, err := time.Parse(time.RFC3339, gotHeaders.Get("X-Webhook-Timestamp"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)

	var payload struct {
		ID        string            `json:"id"`
		Event     string            `json:"event"`
		CreatedAt string            `json:"created_at"`
		Data      map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, envelope.ID, payload.ID)
	assert.Equal(t, "team_created", payload.Event)
	assert.Equal(t, envelope.CreatedAt, payload.CreatedAt)
	assert.Equal(t, "team_1", payload.Data["team_id"])
}

func TestHTTPTransportSignedPayload(t *testing.T) {
	var (
		gotHmac string
		gotBody []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHmac = r.Header.Get("X-Webhook-Hmac-Sha256")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	endpoint := &models.WebhookEndpoint{ID: "wh_1", URL: server.URL, Secret: "whsec_testsecret"}
	envelope := NewEnvelope(EventPing, time.Now(), nil)

	transport := NewHTTPTransport(5*time.Second, true)
	outcome := transport.Deliver(endpoint, envelope)

	require.True(t, outcome.Success)
	assert.Equal(t, Sign(endpoint.Secret, gotBody), gotHmac)
}

func TestHTTPTransportNonSuccessStatus(t *testing.T) {
	tests := []struct {
		status  int
		success bool
	}{
		{http.StatusOK, true},
		{http.StatusCreated, true},
		{http.StatusNoContent, true},
		{http.StatusMovedPermanently, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		endpoint := &models.WebhookEndpoint{URL: server.URL, Secret: "whsec_x"}
		outcome := NewHTTPTransport(5*time.Second, false).Deliver(endpoint, NewEnvelope(EventTeamCreated, time.Now(), nil))

		assert.Equal(t, tt.success, outcome.Success, "status %d", tt.status)
		assert.Equal(t, tt.status, outcome.StatusCode)
		server.Close()
	}
}

func TestHTTPTransportConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	endpoint := &models.WebhookEndpoint{URL: server.URL, Secret: "whsec_x"}
	outcome := NewHTTPTransport(time.Second, false).Deliver(endpoint, NewEnvelope(EventTeamCreated, time.Now(), nil))

	assert.False(t, outcome.Success)
	assert.Zero(t, outcome.StatusCode)
	assert.Error(t, outcome.Err)
}

func TestHTTPTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	endpoint := &models.WebhookEndpoint{URL: server.URL, Secret: "whsec_x"}

	start := time.Now()
	outcome := NewHTTPTransport(100*time.Millisecond, false).Deliver(endpoint, NewEnvelope(EventTeamCreated, time.Now(), nil))

	assert.False(t, outcome.Success)
	assert.Error(t, outcome.Err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewHTTPTransportDefaultTimeout(t *testing.T) {
	transport := NewHTTPTransport(0, false)
	assert.Equal(t, 10*time.Second, transport.client.Timeout)
}
