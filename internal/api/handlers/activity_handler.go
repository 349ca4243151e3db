package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	apiContext "teamsync/internal/api/context"
	"teamsync/internal/api/middleware"
	"teamsync/internal/pkg/errors"
	"teamsync/internal/platform/models"
	"teamsync/internal/platform/repositories"
)

type ActivityHandler struct {
	repo *repositories.ActivityRepository
}

func NewActivityHandler(repo *repositories.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{repo: repo}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	membership := r.Context().Value(apiContext.Membership).(*middleware.Membership)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.repo.ListByOrg(membership.OrgID, limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list activity", nil)
		return
	}
	if logs == nil {
		logs = []*models.ActivityLog{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}
