package sessionstore

import (
	"context"
	"errors"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

// ErrNotFound indicates the session does not exist, was revoked or has expired.
var ErrNotFound = errors.New("session not found")

// Store keeps server-side session records. Records expire at Session.ExpiresAt.
type Store interface {
	Save(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id domain.SessionID) (domain.Session, error)
	Delete(ctx context.Context, id domain.SessionID) error
}
