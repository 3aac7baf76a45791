package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	clockport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/sessionstore"
)

const sessionKeyPrefix = "session:"

type sessionRecord struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// Store is a Redis-backed sessionstore.Store. Each session is one JSON value under
// session:<id> whose TTL ends at the session expiry.
type Store struct {
	client *redis.Client
	clk    clockport.Clock
}

func NewStore(client *redis.Client, clk clockport.Clock) *Store {
	return &Store{client: client, clk: clk}
}

func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.clk.Now())
		if ttl <= 0 {
			return s.Delete(ctx, sess.ID)
		}
	}
	roles := make([]string, 0, len(sess.Roles))
	for _, r := range sess.Roles {
		roles = append(roles, string(r))
	}
	raw, err := json.Marshal(sessionRecord{
		Subject:   string(sess.Subject),
		Email:     sess.Email,
		Roles:     roles,
		IssuedAt:  sess.IssuedAt.UTC(),
		ExpiresAt: sess.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, sessionKeyPrefix+string(sess.ID), raw, ttl).Err()
}

func (s *Store) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+string(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, sessionstore.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	sess := domain.Session{
		ID:        id,
		Subject:   domain.SubjectID(rec.Subject),
		Email:     rec.Email,
		IssuedAt:  rec.IssuedAt.UTC(),
		ExpiresAt: rec.ExpiresAt.UTC(),
	}
	for _, r := range rec.Roles {
		sess.Roles = append(sess.Roles, domain.Role(r))
	}
	if sess.Expired(s.clk.Now()) {
		return domain.Session{}, sessionstore.ErrNotFound
	}
	return sess, nil
}

func (s *Store) Delete(ctx context.Context, id domain.SessionID) error {
	return s.client.Del(ctx, sessionKeyPrefix+string(id)).Err()
}
