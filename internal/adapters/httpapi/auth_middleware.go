package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/apperr"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

// SessionAuthenticator resolves a bearer token to a live session.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Session, error)
}

// NewSessionAuthMiddleware attaches the session named by Authorization: Bearer <token>.
//
// Requests without an Authorization header pass through anonymously; routes that need a
// session are wrapped in RequireSession. A header that is present but malformed or stale
// is rejected with 401.
func NewSessionAuthMiddleware(a SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				next.ServeHTTP(w, r)
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "malformed Authorization header", nil)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token", nil)
				return
			}

			sess, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				if ae, ok := apperr.As(err); ok && ae.Kind == apperr.KindAuth {
					writeError(w, r, ae.Status, ae.Code, ae.Message, nil)
					return
				}
				writeError(w, r, http.StatusServiceUnavailable, "SESSION_STORE_UNAVAILABLE", "could not verify session", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It takes the subject from X-Debug-Subject (falling back to defaultSubject) and roles from
// the comma-separated X-Debug-Roles header, defaulting to lawyer.
// Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess := domain.Session{
				ID:      domain.SessionID("dev:" + sub),
				Subject: domain.SubjectID(sub),
				Roles:   parseDebugRoles(r.Header.Get("X-Debug-Roles")),
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func parseDebugRoles(h string) []domain.Role {
	var roles []domain.Role
	for _, part := range strings.Split(h, ",") {
		switch r := domain.Role(strings.ToLower(strings.TrimSpace(part))); r {
		case domain.RoleLawyer, domain.RoleReviewer, domain.RoleAdmin:
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleLawyer}
	}
	return roles
}

// RequireSession rejects requests that reached it without an authenticated session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
