package profilerepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

// Repo is an in-memory implementation of profilerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID map[domain.ProfileID]profilerepo.Profile
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.ProfileID]profilerepo.Profile),
	}
}

func (r *Repo) Create(ctx context.Context, p profilerepo.Profile) error {
	_ = ctx
	if p.ID == "" {
		return profilerepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; ok {
		return profilerepo.ErrAlreadyExists
	}
	r.byID[p.ID] = cloneProfile(p)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ProfileID) (profilerepo.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return profilerepo.Profile{}, profilerepo.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (r *Repo) GetByOwner(ctx context.Context, owner domain.SubjectID) (profilerepo.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.oldestLocked(func(p profilerepo.Profile) bool {
		return owner != "" && p.Owner == owner
	})
}

func (r *Repo) ListApproved(ctx context.Context) ([]profilerepo.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profilerepo.Profile, 0, len(r.byID))
	for _, p := range r.byID {
		if !p.Approved {
			continue
		}
		out = append(out, cloneProfile(p))
	}
	sortProfilesByName(out)
	return out, nil
}

func (r *Repo) ListAll(ctx context.Context) ([]profilerepo.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profilerepo.Profile, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, cloneProfile(p))
	}
	sortProfilesNewestFirst(out)
	return out, nil
}

func (r *Repo) SetApproval(ctx context.Context, id domain.ProfileID, approved bool, at time.Time) (profilerepo.Profile, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return profilerepo.Profile{}, profilerepo.ErrNotFound
	}
	p.Approved = approved
	p.UpdatedAt = at
	r.byID[id] = p
	return cloneProfile(p), nil
}

func (r *Repo) FindClaimable(ctx context.Context, barLicenseNo, mobileNo string) (profilerepo.Profile, error) {
	_ = ctx
	if barLicenseNo == "" && mobileNo == "" {
		return profilerepo.Profile{}, profilerepo.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.oldestLocked(func(p profilerepo.Profile) bool {
		if p.Owner != "" {
			return false
		}
		if barLicenseNo != "" && p.BarLicenseNo != nil && *p.BarLicenseNo == barLicenseNo {
			return true
		}
		return mobileNo != "" && p.MobileNo == mobileNo
	})
}

func (r *Repo) BindOwner(ctx context.Context, id domain.ProfileID, owner domain.SubjectID, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok || p.Owner != "" {
		return profilerepo.ErrNotFound
	}
	p.Owner = owner
	p.UpdatedAt = at
	r.byID[id] = p
	return nil
}

func (r *Repo) oldestLocked(match func(profilerepo.Profile) bool) (profilerepo.Profile, error) {
	var (
		best  profilerepo.Profile
		found bool
	)
	for _, p := range r.byID {
		if !match(p) {
			continue
		}
		if !found || p.CreatedAt.Before(best.CreatedAt) || (p.CreatedAt.Equal(best.CreatedAt) && p.ID < best.ID) {
			best = p
			found = true
		}
	}
	if !found {
		return profilerepo.Profile{}, profilerepo.ErrNotFound
	}
	return cloneProfile(best), nil
}

func cloneProfile(p profilerepo.Profile) profilerepo.Profile {
	out := p
	out.PhotoPath = cloneStringPtr(p.PhotoPath)
	out.BarLicenseNo = cloneStringPtr(p.BarLicenseNo)
	if p.Specializations != nil {
		out.Specializations = append([]domain.Specialization(nil), p.Specializations...)
	}
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sortProfilesByName(ps []profilerepo.Profile) {
	sort.Slice(ps, func(i, j int) bool {
		ni := strings.ToLower(ps[i].Name)
		nj := strings.ToLower(ps[j].Name)
		if ni == nj {
			return ps[i].ID < ps[j].ID
		}
		return ni < nj
	})
}

func sortProfilesNewestFirst(ps []profilerepo.Profile) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID < ps[j].ID
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}
