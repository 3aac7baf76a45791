package accountrepo

import (
	"context"
	"sync"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/accountrepo"
)

// Repo is an in-memory implementation of accountrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID      map[domain.SubjectID]accountrepo.Account
	idByEmail map[string]domain.SubjectID
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.SubjectID]accountrepo.Account),
		idByEmail: make(map[string]domain.SubjectID),
	}
}

func (r *Repo) Create(ctx context.Context, a accountrepo.Account) error {
	_ = ctx
	email := domain.NormalizeEmail(a.Email)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.idByEmail[email]; ok {
		return accountrepo.ErrEmailTaken
	}
	r.byID[a.ID] = cloneAccount(a)
	r.idByEmail[email] = a.ID
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.SubjectID) (accountrepo.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return accountrepo.Account{}, accountrepo.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (accountrepo.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByEmail[domain.NormalizeEmail(email)]
	if !ok {
		return accountrepo.Account{}, accountrepo.ErrNotFound
	}
	return cloneAccount(r.byID[id]), nil
}

func cloneAccount(a accountrepo.Account) accountrepo.Account {
	out := a
	if a.Roles != nil {
		out.Roles = append([]domain.Role(nil), a.Roles...)
	}
	return out
}
