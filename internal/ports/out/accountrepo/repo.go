package accountrepo

import (
	"context"
	"errors"
	"time"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

var (
	// ErrNotFound indicates no account matches.
	ErrNotFound = errors.New("account not found")

	// ErrEmailTaken indicates another account already uses the email (case-insensitive).
	ErrEmailTaken = errors.New("account email already registered")
)

// Account is the persisted credential record behind a subject.
type Account struct {
	ID           domain.SubjectID
	Email        string
	PasswordHash string
	Roles        []domain.Role
	CreatedAt    time.Time
}

type Repository interface {
	Create(ctx context.Context, a Account) error
	GetByID(ctx context.Context, id domain.SubjectID) (Account, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (Account, error)
}
