package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
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

type MemberHandler struct {
	orgRepo    *repositories.OrganizationRepository
	memberRepo *repositories.MemberRepository
	dispatcher *webhooks.Dispatcher
	recorder   *activity.Recorder
}

func NewMemberHandler(orgRepo *repositories.OrganizationRepository, memberRepo *repositories.MemberRepository, dispatcher *webhooks.Dispatcher, recorder *activity.Recorder) *MemberHandler {
	return &MemberHandler{
		orgRepo:    orgRepo,
		memberRepo: memberRepo,
		dispatcher: dispatcher,
		recorder:   recorder,
	}
}

type inviteMemberRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Invite records a membership for a user already known to the identity
// provider. The invite email itself is the provider's job.
func (h *MemberHandler) Invite(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	var req inviteMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.UserID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "user_id is required", nil)
		return
	}
	if err := validator.IsValidEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if !models.IsValidRole(req.Role) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role", nil)
		return
	}

	org, err := h.orgRepo.GetByID(membership.OrgID)
	if err != nil || org == nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
		return
	}

	count, err := h.memberRepo.CountByOrg(membership.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to verify organization limits", nil)
		return
	}
	if count >= org.MaxMembers {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeQuotaExceeded,
			fmt.Sprintf("Organization limit reached (%d members)", org.MaxMembers), nil)
		return
	}

	member := &models.Member{
		OrganizationID: membership.OrgID,
		UserID:         req.UserID,
		Email:          req.Email,
		Role:           req.Role,
		InvitedBy:      &membership.UserID,
	}
	if err := h.memberRepo.Create(member); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User is already a member of this organization", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to add member", nil)
		return
	}

	h.recorder.Record(membership.OrgID, &membership.UserID, string(webhooks.EventUserInvited), map[string]interface{}{
		"email": member.Email,
		"role":  member.Role,
	})
	h.dispatcher.Dispatch(membership.OrgID, webhooks.EventUserInvited, map[string]interface{}{
		"email":      member.Email,
		"role":       member.Role,
		"invited_by": membership.UserID,
		"invited_at": time.Unix(member.InvitedAt, 0).UTC().Format(time.RFC3339),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(member)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	members, err := h.memberRepo.ListByOrg(membership.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list members", nil)
		return
	}
	if members == nil {
		members = []*models.Member{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(members)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	memberID := params.ByName("member_id")

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !models.IsValidRole(req.Role) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role", nil)
		return
	}

	member, err := h.memberRepo.GetByID(membership.OrgID, memberID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load member", nil)
		return
	}
	if member == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Member not found", nil)
		return
	}

	oldRole := member.Role
	if err := h.memberRepo.UpdateRole(membership.OrgID, memberID, req.Role); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update role", nil)
		return
	}
	member.Role = req.Role

	h.recorder.Record(membership.OrgID, &membership.UserID, string(webhooks.EventRoleChanged), map[string]interface{}{
		"user_id":  member.UserID,
		"old_role": oldRole,
		"new_role": req.Role,
	})
	h.dispatcher.Dispatch(membership.OrgID, webhooks.EventRoleChanged, map[string]interface{}{
		"user_id":  member.UserID,
		"email":    member.Email,
		"old_role": oldRole,
		"new_role": req.Role,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(member)
}

func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	memberID := params.ByName("member_id")

	member, err := h.memberRepo.GetByID(membership.OrgID, memberID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load member", nil)
		return
	}
	if member == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Member not found", nil)
		return
	}
	if member.Role == models.RoleOwner {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Owners cannot be removed", nil)
		return
	}

	if err := h.memberRepo.Delete(membership.OrgID, memberID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to remove member", nil)
		return
	}

	h.recorder.Record(membership.OrgID, &membership.UserID, string(webhooks.EventUserRemoved), map[string]interface{}{
		"user_id": member.UserID,
		"email":   member.Email,
	})
	h.dispatcher.Dispatch(membership.OrgID, webhooks.EventUserRemoved, map[string]interface{}{
		"user_id":    member.UserID,
		"email":      member.Email,
		"removed_by": membership.UserID,
	})

	w.WriteHeader(http.StatusOK)
}
