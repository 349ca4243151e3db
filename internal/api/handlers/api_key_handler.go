package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"

	apiContext "teamsync/internal/api/context"
	"teamsync/internal/api/middleware"
	"teamsync/internal/pkg/errors"
	"teamsync/internal/platform/models"
	"teamsync/internal/platform/repositories"
)

type APIKeyHandler struct {
	repo *repositories.APIKeyRepository
}

func NewAPIKeyHandler(repo *repositories.APIKeyRepository) *APIKeyHandler {
	return &APIKeyHandler{repo: repo}
}

type createAPIKeyRequest struct {
	Name          string `json:"name"`
	ExpiresInDays int    `json:"expires_in_days"`
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	var req createAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Key name is required", nil)
		return
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate key", nil)
		return
	}
	rawKey := "tsk_" + hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash key", nil)
		return
	}

	apiKey := &models.APIKey{
		OrganizationID: membership.OrgID,
		UserID:         membership.UserID,
		Name:           req.Name,
		KeyHash:        string(hash),
		KeyPrefix:      rawKey[:12],
	}
	if req.ExpiresInDays > 0 {
		exp := time.Now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour).Unix()
		apiKey.ExpiresAt = &exp
	}

	if err := h.repo.Create(apiKey); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to store key", nil)
		return
	}

	// The raw key appears in this response and nowhere else.
	response := struct {
		ID        string `json:"id"`
		Key       string `json:"key"`
		Name      string `json:"name"`
		ExpiresAt *int64 `json:"expires_at,omitempty"`
		CreatedAt int64  `json:"created_at"`
	}{
		ID:        apiKey.ID,
		Key:       rawKey,
		Name:      apiKey.Name,
		ExpiresAt: apiKey.ExpiresAt,
		CreatedAt: apiKey.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	keys, err := h.repo.ListByOrg(membership.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list keys", nil)
		return
	}
	if keys == nil {
		keys = []*models.APIKey{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(keys)
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	if err := h.repo.Revoke(membership.OrgID, params.ByName("key_id")); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to revoke key", nil)
		return
	}

	w.WriteHeader(http.StatusOK)
}
