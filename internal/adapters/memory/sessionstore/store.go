package sessionstore

import (
	"context"
	"sync"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	clockport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/sessionstore"
)

// Store is an in-memory implementation of sessionstore.Store.
// Expired records are treated as absent and pruned on write.
type Store struct {
	mu  sync.Mutex
	clk clockport.Clock
	m   map[domain.SessionID]domain.Session
}

func NewStore(clk clockport.Clock) *Store {
	return &Store{
		clk: clk,
		m:   make(map[domain.SessionID]domain.Session),
	}
}

func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clk.Now()
	for id, v := range s.m {
		if v.Expired(now) {
			delete(s.m, id)
		}
	}
	s.m[sess.ID] = cloneSession(sess)
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return domain.Session{}, sessionstore.ErrNotFound
	}
	if sess.Expired(s.clk.Now()) {
		delete(s.m, id)
		return domain.Session{}, sessionstore.ErrNotFound
	}
	return cloneSession(sess), nil
}

func (s *Store) Delete(ctx context.Context, id domain.SessionID) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

func cloneSession(sess domain.Session) domain.Session {
	out := sess
	if sess.Roles != nil {
		out.Roles = append([]domain.Role(nil), sess.Roles...)
	}
	return out
}
