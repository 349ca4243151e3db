package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	apiContext "teamsync/internal/api/context"
	"teamsync/internal/api/middleware"
	"teamsync/internal/engine/activity"
	"teamsync/internal/engine/webhooks"
	"teamsync/internal/pkg/errors"
	"teamsync/internal/platform/models"
	"teamsync/internal/platform/repositories"
)

type TeamHandler struct {
	orgRepo    *repositories.OrganizationRepository
	teamRepo   *repositories.TeamRepository
	memberRepo *repositories.MemberRepository
	dispatcher *webhooks.Dispatcher
	recorder   *activity.Recorder
}

func NewTeamHandler(orgRepo *repositories.OrganizationRepository, teamRepo *repositories.TeamRepository, memberRepo *repositories.MemberRepository, dispatcher *webhooks.Dispatcher, recorder *activity.Recorder) *TeamHandler {
	return &TeamHandler{
		orgRepo:    orgRepo,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		dispatcher: dispatcher,
		recorder:   recorder,
	}
}

type createTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Team name is required", nil)
		return
	}

	org, err := h.orgRepo.GetByID(membership.OrgID)
	if err != nil || org == nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
		return
	}

	count, err := h.teamRepo.CountByOrg(membership.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to verify organization limits", nil)
		return
	}
	if count >= org.MaxTeams {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeQuotaExceeded,
			fmt.Sprintf("Organization limit reached (%d teams)", org.MaxTeams), nil)
		return
	}

	team := &models.Team{
		OrganizationID: membership.OrgID,
		Name:           req.Name,
		Description:    strings.TrimSpace(req.Description),
		CreatedBy:      &membership.UserID,
	}
	if err := h.teamRepo.Create(team); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create team", nil)
		return
	}

	h.recorder.Record(membership.OrgID, &membership.UserID, string(webhooks.EventTeamCreated), map[string]interface{}{
		"team_id":   team.ID,
		"team_name": team.Name,
	})
	h.dispatcher.Dispatch(membership.OrgID, webhooks.EventTeamCreated, map[string]interface{}{
		"team_id":    team.ID,
		"team_name":  team.Name,
		"created_by": membership.UserID,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(team)
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	teams, err := h.teamRepo.ListByOrg(membership.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list teams", nil)
		return
	}
	if teams == nil {
		teams = []*models.Team{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(teams)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	team, err := h.teamRepo.GetByID(membership.OrgID, params.ByName("team_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load team", nil)
		return
	}
	if team == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Team not found", nil)
		return
	}

	members, err := h.teamRepo.ListMembers(team.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load team members", nil)
		return
	}

	response := struct {
		*models.Team
		Members []*models.TeamMember `json:"members"`
	}{team, members}
	if response.Members == nil {
		response.Members = []*models.TeamMember{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

type updateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req updateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	team, err := h.teamRepo.GetByID(membership.OrgID, params.ByName("team_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load team", nil)
		return
	}
	if team == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Team not found", nil)
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Team name is required", nil)
			return
		}
		team.Name = name
	}
	if req.Description != nil {
		team.Description = strings.TrimSpace(*req.Description)
	}

	if err := h.teamRepo.Update(team); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update team", nil)
		return
	}

	h.recorder.Record(membership.OrgID, &membership.UserID, string(webhooks.EventTeamUpdated), map[string]interface{}{
		"team_id":   team.ID,
		"team_name": team.Name,
	})
	h.dispatcher.Dispatch(membership.OrgID, webhooks.EventTeamUpdated, map[string]interface{}{
		"team_id":   team.ID,
		"team_name": team.Name,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	team, err := h.teamRepo.GetByID(membership.OrgID, params.ByName("team_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load team", nil)
		return
	}
	if team == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Team not found", nil)
		return
	}

	if err := h.teamRepo.Delete(membership.OrgID, team.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete team", nil)
		return
	}

	h.recorder.Record(membership.OrgID, &membership.UserID, string(webhooks.EventTeamDeleted), map[string]interface{}{
		"team_id":   team.ID,
		"team_name": team.Name,
	})
	h.dispatcher.Dispatch(membership.OrgID, webhooks.EventTeamDeleted, map[string]interface{}{
		"team_id":   team.ID,
		"team_name": team.Name,
	})

	w.WriteHeader(http.StatusOK)
}

type addTeamMemberRequest struct {
	UserID string `json:"user_id"`
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req addTeamMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "user_id is required", nil)
		return
	}

	team, err := h.teamRepo.GetByID(membership.OrgID, params.ByName("team_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load team", nil)
		return
	}
	if team == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Team not found", nil)
		return
	}

	// Team membership requires organization membership first.
	orgMember, err := h.memberRepo.GetByOrgAndUser(membership.OrgID, req.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load membership", nil)
		return
	}
	if orgMember == nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "User is not a member of this organization", nil)
		return
	}

	tm := &models.TeamMember{
		TeamID:  team.ID,
		UserID:  req.UserID,
		AddedBy: &membership.UserID,
	}
	if err := h.teamRepo.AddMember(tm); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User is already on this team", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to add team member", nil)
		return
	}

	h.recorder.Record(membership.OrgID, &membership.UserID, string(webhooks.EventMemberAddedToTeam), map[string]interface{}{
		"team_id": team.ID,
		"user_id": req.UserID,
	})
	h.dispatcher.Dispatch(membership.OrgID, webhooks.EventMemberAddedToTeam, map[string]interface{}{
		"team_id":  team.ID,
		"user_id":  req.UserID,
		"added_by": membership.UserID,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tm)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	userID := params.ByName("user_id")

	team, err := h.teamRepo.GetByID(membership.OrgID, params.ByName("team_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load team", nil)
		return
	}
	if team == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Team not found", nil)
		return
	}

	if err := h.teamRepo.RemoveMember(team.ID, userID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to remove team member", nil)
		return
	}

	h.recorder.Record(membership.OrgID, &membership.UserID, string(webhooks.EventMemberRemovedFromTeam), map[string]interface{}{
		"team_id": team.ID,
		"user_id": userID,
	})
	h.dispatcher.Dispatch(membership.OrgID, webhooks.EventMemberRemovedFromTeam, map[string]interface{}{
		"team_id": team.ID,
		"user_id": userID,
	})

	w.WriteHeader(http.StatusOK)
}
