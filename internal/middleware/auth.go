package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/uptaskhq/uptask-server/internal/auth"
	"github.com/uptaskhq/uptask-server/internal/store"
)

// RequireAuth verifies the bearer session credential and attaches the
// account's profile to the request context. Verification failure is terminal
// for the request: missing header, malformed, bad-signature, and expired
// credentials all reject with 401 and are never retried.
func RequireAuth(issuer *auth.Issuer, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := bearerToken(r)
			if credential == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := issuer.Verify(credential)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			profile, err := userStore.GetProfile(userID)
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if profile == nil {
				// Valid signature but the account is gone; the credential
				// no longer identifies anyone.
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := auth.WithUser(r.Context(), *profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credential from the Authorization header, falling
// back to the token query parameter for WebSocket upgrades.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return r.URL.Query().Get("token")
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
