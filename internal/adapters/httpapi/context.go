package httpapi

import (
	"context"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

type sessionKey struct{}

func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the authenticated session, if any.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	v, ok := ctx.Value(sessionKey{}).(domain.Session)
	return v, ok && v.Subject != ""
}

// PrincipalFromContext returns the caller as a Principal; anonymous when no session is attached.
func PrincipalFromContext(ctx context.Context) domain.Principal {
	if s, ok := SessionFromContext(ctx); ok {
		return s.Principal()
	}
	return domain.Anonymous()
}
