// Package review is the reviewer-facing workflow over lawyer profiles.
package review

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/apperr"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/profiles"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/logging"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

// Approver changes the approval flag of a profile.
type Approver interface {
	SetApproval(ctx context.Context, who domain.Principal, id domain.ProfileID, approved bool) (domain.Profile, error)
}

type Service struct {
	repo     profilerepo.Repository
	approver Approver
	log      *zap.Logger
}

func NewService(repo profilerepo.Repository, approver Approver, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		approver: approver,
		log:      logging.OrNop(log).Named("review"),
	}
}

// ListProfiles returns profiles matching filter, newest first.
// Principals without the review capability get an authorization error and no data.
func (s *Service) ListProfiles(ctx context.Context, who domain.Principal, filter domain.ApprovalFilter) ([]domain.Profile, error) {
	all, err := s.loadAll(ctx, who, filter)
	if err != nil {
		return nil, err
	}
	return applyFilter(all, filter), nil
}

// Open loads a review queue the caller can act on without re-querying.
func (s *Service) Open(ctx context.Context, who domain.Principal, filter domain.ApprovalFilter) (*Queue, error) {
	all, err := s.loadAll(ctx, who, filter)
	if err != nil {
		return nil, err
	}
	return &Queue{approver: s.approver, who: who, filter: filter, all: all}, nil
}

func (s *Service) loadAll(ctx context.Context, who domain.Principal, filter domain.ApprovalFilter) ([]domain.Profile, error) {
	if who == nil || !who.Can(domain.CapReviewProfiles) {
		if who != nil && who.Authenticated() {
			s.log.Info("review access denied", zap.String("subject", string(who.Subject())))
		}
		return nil, apperr.Forbidden("reviewer access required")
	}
	if _, ok := domain.ParseApprovalFilter(string(filter)); !ok {
		return nil, apperr.Validation("Invalid status filter.", map[string]any{
			"status": "must be one of pending, approved, all",
		})
	}
	recs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Persistence("could not load profiles", err)
	}
	out := make([]domain.Profile, 0, len(recs))
	for _, r := range recs {
		out = append(out, profiles.ToDomain(r))
	}
	return out, nil
}

func applyFilter(ps []domain.Profile, filter domain.ApprovalFilter) []domain.Profile {
	out := make([]domain.Profile, 0, len(ps))
	for _, p := range ps {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Queue is a locally held review list. Approve and Reject update the held entry in place,
// so Items reflects the change without another repository read.
type Queue struct {
	approver Approver
	who      domain.Principal
	filter   domain.ApprovalFilter

	mu  sync.Mutex
	all []domain.Profile
}

func (q *Queue) Filter() domain.ApprovalFilter { return q.filter }

func (q *Queue) Approve(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	return q.set(ctx, id, true)
}

func (q *Queue) Reject(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	return q.set(ctx, id, false)
}

func (q *Queue) set(ctx context.Context, id domain.ProfileID, approved bool) (domain.Profile, error) {
	p, err := q.approver.SetApproval(ctx, q.who, id, approved)
	if err != nil {
		return domain.Profile{}, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.all {
		if q.all[i].ID == id {
			q.all[i].Approved = p.Approved
			q.all[i].UpdatedAt = p.UpdatedAt
			break
		}
	}
	return p, nil
}

// Items returns the held profiles that still match the queue's filter.
func (q *Queue) Items() []domain.Profile {
	q.mu.Lock()
	defer q.mu.Unlock()
	return applyFilter(q.all, q.filter)
}
