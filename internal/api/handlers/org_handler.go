package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	apiContext "teamsync/internal/api/context"
	"teamsync/internal/api/middleware"
	"teamsync/internal/engine/activity"
	"teamsync/internal/engine/webhooks"
	"teamsync/internal/pkg/errors"
	"teamsync/internal/platform/auth"
	"teamsync/internal/platform/models"
	"teamsync/internal/platform/repositories"
)

type OrgHandler struct {
	orgRepo    *repositories.OrganizationRepository
	memberRepo *repositories.MemberRepository
	dispatcher *webhooks.Dispatcher
	recorder   *activity.Recorder
}

func NewOrgHandler(orgRepo *repositories.OrganizationRepository, memberRepo *repositories.MemberRepository, dispatcher *webhooks.Dispatcher, recorder *activity.Recorder) *OrgHandler {
	return &OrgHandler{
		orgRepo:    orgRepo,
		memberRepo: memberRepo,
		dispatcher: dispatcher,
		recorder:   recorder,
	}
}

type createOrgRequest struct {
	Name string `json:"name"`
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req createOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Organization name is required", nil)
		return
	}

	org := &models.Organization{Name: req.Name}
	if err := h.orgRepo.Create(org); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create organization", nil)
		return
	}

	owner := &models.Member{
		OrganizationID: org.ID,
		UserID:         claims.UserID,
		Email:          claims.Email,
		Role:           models.RoleOwner,
	}
	if err := h.memberRepo.Create(owner); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create owner membership", nil)
		return
	}

	h.recorder.Record(org.ID, &claims.UserID, string(webhooks.EventOrganizationCreated), map[string]interface{}{
		"organization_id": org.ID,
		"name":            org.Name,
	})
	h.dispatcher.Dispatch(org.ID, webhooks.EventOrganizationCreated, map[string]interface{}{
		"organization_id": org.ID,
		"name":            org.Name,
		"created_by":      claims.UserID,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(org)
}

func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	org, err := h.orgRepo.GetByID(membership.OrgID)
	if err != nil || org == nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(org)
}
