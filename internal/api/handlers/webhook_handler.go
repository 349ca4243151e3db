package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	apiContext "teamsync/internal/api/context"
	"teamsync/internal/api/middleware"
	"teamsync/internal/engine/activity"
	"teamsync/internal/engine/webhooks"
	"teamsync/internal/pkg/errors"
	"teamsync/internal/pkg/validator"
	"teamsync/internal/platform/models"
	"teamsync/internal/platform/repositories"
)

// WebhookHandler is the administrative surface for endpoint registration.
// Validation happens here, once; the dispatcher trusts persisted endpoints.
type WebhookHandler struct {
	repo      *repositories.WebhookRepository
	transport webhooks.Transport
	recorder  *activity.Recorder
}

func NewWebhookHandler(repo *repositories.WebhookRepository, transport webhooks.Transport, recorder *activity.Recorder) *WebhookHandler {
	return &WebhookHandler{repo: repo, transport: transport, recorder: recorder}
}

type createWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	var req createWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.IsValidEndpointURL(req.URL); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if len(req.Events) == 0 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "At least one event subscription is required", nil)
		return
	}
	for _, e := range req.Events {
		if !webhooks.IsSubscribable(e) {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown event: "+e, nil)
			return
		}
	}

	secret, err := webhooks.GenerateSecret()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate secret", nil)
		return
	}

	endpoint := &models.WebhookEndpoint{
		OrganizationID: membership.OrgID,
		URL:            req.URL,
		Events:         req.Events,
		Secret:         secret,
		IsActive:       true,
	}

	if err := h.repo.Create(endpoint); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create webhook endpoint", nil)
		return
	}

	h.recorder.Record(membership.OrgID, &membership.UserID, "webhook_endpoint_created", map[string]interface{}{
		"webhook_id": endpoint.ID,
		"url":        endpoint.URL,
	})

	// The secret appears in this response and nowhere else.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(endpoint)
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	endpoints, err := h.repo.ListByOrg(membership.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list webhook endpoints", nil)
		return
	}
	if endpoints == nil {
		endpoints = []*models.WebhookEndpoint{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoints)
}

func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	endpoint, err := h.repo.GetByID(membership.OrgID, params.ByName("webhook_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load webhook endpoint", nil)
		return
	}
	if endpoint == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook endpoint not found", nil)
		return
	}
	endpoint.Secret = ""

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoint)
}

type updateWebhookRequest struct {
	URL      *string  `json:"url"`
	Events   []string `json:"events"`
	IsActive *bool    `json:"is_active"`
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req updateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	endpoint, err := h.repo.GetByID(membership.OrgID, params.ByName("webhook_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load webhook endpoint", nil)
		return
	}
	if endpoint == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook endpoint not found", nil)
		return
	}

	if req.URL != nil {
		if err := validator.IsValidEndpointURL(*req.URL); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}
		endpoint.URL = *req.URL
	}
	if req.Events != nil {
		if len(req.Events) == 0 {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "At least one event subscription is required", nil)
			return
		}
		for _, e := range req.Events {
			if !webhooks.IsSubscribable(e) {
				errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown event: "+e, nil)
				return
			}
		}
		endpoint.Events = req.Events
	}
	if req.IsActive != nil {
		endpoint.IsActive = *req.IsActive
	}

	if err := h.repo.Update(endpoint); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update webhook endpoint", nil)
		return
	}
	endpoint.Secret = ""

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoint)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	if err := h.repo.Delete(membership.OrgID, params.ByName("webhook_id")); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete webhook endpoint", nil)
		return
	}

	h.recorder.Record(membership.OrgID, &membership.UserID, "webhook_endpoint_deleted", map[string]interface{}{
		"webhook_id": params.ByName("webhook_id"),
	})

	w.WriteHeader(http.StatusOK)
}

// Ping sends a real test delivery to one endpoint, bypassing subscription
// matching, and reports the outcome to the administrator synchronously.
func (h *WebhookHandler) Ping(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	endpoint, err := h.repo.GetByID(membership.OrgID, params.ByName("webhook_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load webhook endpoint", nil)
		return
	}
	if endpoint == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook endpoint not found", nil)
		return
	}

	envelope := webhooks.NewEnvelope(webhooks.EventPing, time.Now().UTC(), map[string]interface{}{
		"message": "TeamSync webhook test",
	})
	outcome := h.transport.Deliver(endpoint, envelope)

	if outcome.Success {
		h.repo.RecordSuccess(endpoint.ID, time.Now().UTC())
	} else {
		h.repo.RecordFailure(endpoint.ID)
	}

	response := struct {
		DeliveryID string `json:"delivery_id"`
		Success    bool   `json:"success"`
		StatusCode int    `json:"status_code,omitempty"`
	}{
		DeliveryID: envelope.ID,
		Success:    outcome.Success,
		StatusCode: outcome.StatusCode,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
