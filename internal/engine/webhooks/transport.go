package webhooks

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"teamsync/internal/platform/models"
)

// Outcome classifies one delivery attempt. StatusCode is zero when the
// request never produced a response (connection refused, DNS failure,
// timeout).
type Outcome struct {
	Success    bool
	StatusCode int
	Err        error
}

// Transport performs the actual network POST for one envelope.
type Transport interface {
	Deliver(endpoint *models.WebhookEndpoint, envelope *Envelope) Outcome
}

// HTTPTransport delivers envelopes over HTTP with a fixed timeout so one
// unresponsive endpoint cannot stall the batch. Exactly one attempt per
// call; retries are a non-goal.
type HTTPTransport struct {
	client       *http.Client
	signPayloads bool
}

func NewHTTPTransport(timeout time.Duration, signPayloads bool) *HTTPTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{
		client:       &http.Client{Timeout: timeout},
		signPayloads: signPayloads,
	}
}

func (t *HTTPTransport) Deliver(endpoint *models.WebhookEndpoint, envelope *Envelope) Outcome {
	body, err := json.Marshal(envelope)
	if err != nil {
		return Outcome{Success: false, Err: err}
	}

	req, err := http.NewRequest(http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return Outcome{Success: false, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", envelope.Event)
	req.Header.Set("X-Webhook-Signature", endpoint.Secret)
	req.Header.Set("X-Webhook-Timestamp", envelope.CreatedAt)
	if t.signPayloads {
		req.Header.Set("X-Webhook-Hmac-Sha256", Sign(endpoint.Secret, body))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Outcome{Success: false, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return Outcome{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
	}
}
