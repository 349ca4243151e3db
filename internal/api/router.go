package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apiContext "teamsync/internal/api/context"
	"teamsync/internal/api/handlers"
	"teamsync/internal/api/middleware"
	"teamsync/internal/pkg/errors"
	"teamsync/internal/platform/models"
)

type Dependencies struct {
	OrgHandler      *handlers.OrgHandler
	MemberHandler   *handlers.MemberHandler
	TeamHandler     *handlers.TeamHandler
	WebhookHandler  *handlers.WebhookHandler
	APIKeyHandler   *handlers.APIKeyHandler
	ActivityHandler *handlers.ActivityHandler
	HealthHandler   *handlers.HealthHandler

	AuthMiddleware *middleware.AuthMiddleware
	OrgMiddleware  *middleware.OrgMiddleware
	RateLimiter    *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/healthz", wrap(deps.HealthHandler.Check))
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	authMid := deps.AuthMiddleware
	orgMid := deps.OrgMiddleware
	read := deps.RateLimiter.Limit("api_read")
	write := deps.RateLimiter.Limit("api_write")

	// Organizations
	router.POST("/api/v1/organizations",
		chain(deps.OrgHandler.Create, authMid.Handle, write))
	router.GET("/api/v1/organizations/:org_id",
		chain(deps.OrgHandler.Get, authMid.Handle, orgMid.Handle, read))

	// Members
	router.GET("/api/v1/organizations/:org_id/members",
		chain(deps.MemberHandler.List, authMid.Handle, orgMid.Handle, read))
	router.POST("/api/v1/organizations/:org_id/members",
		chain(deps.MemberHandler.Invite, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))
	router.PATCH("/api/v1/organizations/:org_id/members/:member_id/role",
		chain(deps.MemberHandler.UpdateRole, authMid.Handle, orgMid.Handle, requireRole(models.RoleOwner), write))
	router.DELETE("/api/v1/organizations/:org_id/members/:member_id",
		chain(deps.MemberHandler.Remove, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))

	// Teams
	router.POST("/api/v1/organizations/:org_id/teams",
		chain(deps.TeamHandler.Create, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))
	router.GET("/api/v1/organizations/:org_id/teams",
		chain(deps.TeamHandler.List, authMid.Handle, orgMid.Handle, read))
	router.GET("/api/v1/organizations/:org_id/teams/:team_id",
		chain(deps.TeamHandler.Get, authMid.Handle, orgMid.Handle, read))
	router.PATCH("/api/v1/organizations/:org_id/teams/:team_id",
		chain(deps.TeamHandler.Update, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))
	router.DELETE("/api/v1/organizations/:org_id/teams/:team_id",
		chain(deps.TeamHandler.Delete, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))
	router.POST("/api/v1/organizations/:org_id/teams/:team_id/members",
		chain(deps.TeamHandler.AddMember, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))
	router.DELETE("/api/v1/organizations/:org_id/teams/:team_id/members/:user_id",
		chain(deps.TeamHandler.RemoveMember, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))

	// Activity
	router.GET("/api/v1/organizations/:org_id/activity",
		chain(deps.ActivityHandler.List, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), read))

	// Webhook endpoints (administrative surface)
	router.POST("/api/v1/organizations/:org_id/webhooks",
		chain(deps.WebhookHandler.Create, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))
	router.GET("/api/v1/organizations/:org_id/webhooks",
		chain(deps.WebhookHandler.List, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), read))
	router.GET("/api/v1/organizations/:org_id/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Get, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), read))
	router.PATCH("/api/v1/organizations/:org_id/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Update, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))
	router.DELETE("/api/v1/organizations/:org_id/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Delete, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))
	router.POST("/api/v1/organizations/:org_id/webhooks/:webhook_id/ping",
		chain(deps.WebhookHandler.Ping, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))

	// API keys
	router.POST("/api/v1/organizations/:org_id/api-keys",
		chain(deps.APIKeyHandler.Create, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))
	router.GET("/api/v1/organizations/:org_id/api-keys",
		chain(deps.APIKeyHandler.List, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), read))
	router.DELETE("/api/v1/organizations/:org_id/api-keys/:key_id",
		chain(deps.APIKeyHandler.Revoke, authMid.Handle, orgMid.Handle, requireRole(models.RoleAdmin, models.RoleOwner), write))

	return router
}

// chain applies middlewares outermost-first, then adapts to httprouter.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// wrap injects route params into the request context.
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			membership, ok := r.Context().Value(apiContext.Membership).(*middleware.Membership)
			if !ok {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "No membership resolved", nil)
				return
			}

			for _, role := range roles {
				if membership.Role == role {
					next(w, r)
					return
				}
			}

			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
		}
	}
}
