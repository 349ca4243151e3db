package middleware

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "teamsync/internal/api/context"
	"teamsync/internal/pkg/errors"
	"teamsync/internal/platform/auth"
	"teamsync/internal/platform/repositories"
)

// Membership identifies the caller inside one organization. Role comes from
// the membership row, never from the token.
type Membership struct {
	OrgID  string
	UserID string
	Role   string
}

type OrgMiddleware struct {
	orgRepo    *repositories.OrganizationRepository
	memberRepo *repositories.MemberRepository
}

func NewOrgMiddleware(orgRepo *repositories.OrganizationRepository, memberRepo *repositories.MemberRepository) *OrgMiddleware {
	return &OrgMiddleware{orgRepo: orgRepo, memberRepo: memberRepo}
}

func (m *OrgMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
		orgID := params.ByName("org_id")
		if orgID == "" {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing organization id", nil)
			return
		}

		org, err := m.orgRepo.GetByID(orgID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
			return
		}
		if org == nil {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
			return
		}

		member, err := m.memberRepo.GetByOrgAndUser(orgID, claims.UserID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load membership", nil)
			return
		}
		if member == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Not a member of this organization", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Membership, &Membership{
			OrgID:  orgID,
			UserID: claims.UserID,
			Role:   member.Role,
		})

		next(w, r.WithContext(ctx))
	}
}
