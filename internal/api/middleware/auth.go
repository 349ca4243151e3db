package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apiContext "teamsync/internal/api/context"
	"teamsync/internal/pkg/errors"
	"teamsync/internal/platform/auth"
	"teamsync/internal/platform/repositories"
)

const apiKeyTokenPrefix = "tsk_"

// AuthMiddleware establishes the current user. Identity comes either from a
// bearer token issued by the identity provider or from an organization API
// key. Membership and role are resolved separately by OrgMiddleware.
type AuthMiddleware struct {
	tokenSvc   *auth.TokenService
	apiKeyRepo *repositories.APIKeyRepository
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, apiKeyRepo *repositories.APIKeyRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, apiKeyRepo: apiKeyRepo}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		var claims *auth.Claims
		if strings.HasPrefix(parts[1], apiKeyTokenPrefix) {
			claims = m.resolveAPIKey(parts[1])
			if claims == nil {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or revoked API key", nil)
				return
			}
		} else {
			var err error
			claims, err = m.tokenSvc.ValidateToken(parts[1])
			if err != nil {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired token", nil)
				return
			}
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		next(w, r.WithContext(ctx))
	}
}

// resolveAPIKey matches the presented key against stored bcrypt hashes.
// Lookup goes through the indexed prefix, then compares each candidate.
func (m *AuthMiddleware) resolveAPIKey(rawKey string) *auth.Claims {
	if len(rawKey) < 12 {
		return nil
	}

	candidates, err := m.apiKeyRepo.ListByPrefix(rawKey[:12])
	if err != nil {
		return nil
	}

	now := time.Now().Unix()
	for _, key := range candidates {
		if key.RevokedAt != nil {
			continue
		}
		if key.ExpiresAt != nil && *key.ExpiresAt < now {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)) != nil {
			continue
		}

		go m.apiKeyRepo.UpdateLastUsed(key.ID)
		return &auth.Claims{UserID: key.UserID}
	}
	return nil
}
