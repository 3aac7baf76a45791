package accountrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/accountrepo"
)

// Repo is a Postgres implementation of accountrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, a accountrepo.Account) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(a.ID))
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}
	roles := make([]string, 0, len(a.Roles))
	for _, role := range a.Roles {
		roles = append(roles, string(role))
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, roles, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, a.Email, a.PasswordHash, roles, a.CreatedAt.UTC())
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			switch pe.ConstraintName {
			case "accounts_email_unique":
				return accountrepo.ErrEmailTaken
			default:
				return err
			}
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.SubjectID) (accountrepo.Account, error) {
	if r.pool == nil {
		return accountrepo.Account{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return accountrepo.Account{}, accountrepo.ErrNotFound
	}
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, roles, created_at
		FROM accounts
		WHERE id = $1
	`, uid))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (accountrepo.Account, error) {
	if r.pool == nil {
		return accountrepo.Account{}, errors.New("nil postgres pool")
	}
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, roles, created_at
		FROM accounts
		WHERE lower(email) = lower($1)
	`, domain.NormalizeEmail(email)))
}

func scanAccount(row pgx.Row) (accountrepo.Account, error) {
	var (
		a     accountrepo.Account
		id    uuid.UUID
		roles []string
	)
	if err := row.Scan(&id, &a.Email, &a.PasswordHash, &roles, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accountrepo.Account{}, accountrepo.ErrNotFound
		}
		return accountrepo.Account{}, err
	}
	a.ID = domain.SubjectID(id.String())
	a.CreatedAt = a.CreatedAt.UTC()
	for _, role := range roles {
		a.Roles = append(a.Roles, domain.Role(role))
	}
	return a, nil
}
