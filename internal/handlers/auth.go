package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/emarastore/emara/internal/auth"
	"github.com/emarastore/emara/internal/services"
)

type claimsContextKey struct{}

// AdminLogin exchanges admin credentials for a bearer token.
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	token, user, err := h.adminService.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.loggerFromContext(r.Context()).Error("login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":    user.ID.String(),
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// AdminVerify reports whether the presented token is still valid.
func (h *Handlers) AdminVerify(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"email": claims.Email,
		"role":  claims.Role,
	})
}

// RequireAdmin guards the admin subrouter. All failure modes return a uniform
// 401 before any store is touched.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := h.adminService.VerifyToken(token)
		if err != nil {
			h.loggerFromContext(r.Context()).Debug("rejected admin token", "error", err)
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*auth.Claims)
	return claims
}
