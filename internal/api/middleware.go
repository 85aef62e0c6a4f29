package api

import (
	"net/http"
	"strings"
	"time"

	"campuspass/pkg/config"
)

// Auth attaches the caller identity from a bearer token.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// In dev, if Authorization is missing, it falls back to X-Owner-Ref /
// X-Owner-Role headers to keep local testing simple.
func Auth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				id, err := VerifyToken(strings.TrimSpace(authz[7:]), cfg.AuthSecret, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				ref := strings.TrimSpace(r.Header.Get("X-Owner-Ref"))
				if ref != "" {
					role := strings.TrimSpace(r.Header.Get("X-Owner-Role"))
					if role != RoleStaff {
						role = RoleVisitor
					}
					id := &Identity{Ref: ref, Role: role}
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing token")
		})
	}
}

// RequireStaff gates the front-desk endpoints.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if id == nil {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
			return
		}
		if id.Role != RoleStaff {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "staff only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
