// Package accounts owns sign-up, sign-in and the server-side session lifecycle.
package accounts

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/apperr"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/auth/tokens"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/logging"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/metrics"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/accountrepo"
	clockport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/sessionstore"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// TokenIssuer signs and verifies session bearer tokens.
type TokenIssuer interface {
	Issue(subject, sessionID, email string, roles []string, issuedAt, expiresAt time.Time) (string, error)
	Verify(token string) (*tokens.Claims, error)
}

type Options struct {
	// SessionTTL is the lifetime of both the token and the session record.
	SessionTTL time.Duration
	BcryptCost int
}

// Account is the public view of a registered user.
type Account struct {
	ID        domain.SubjectID
	Email     string
	Roles     []domain.Role
	CreatedAt time.Time
}

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// SessionEvent is delivered to subscribers after a session is created or removed.
type SessionEvent struct {
	Kind    EventKind
	Session domain.Session
}

type Service struct {
	accounts accountrepo.Repository
	sessions sessionstore.Store
	tokens   TokenIssuer
	clk      clockport.Clock
	log      *zap.Logger
	m        *metrics.Metrics

	ttl  time.Duration
	cost int

	newID func() string

	mu      sync.Mutex
	subs    map[int]func(SessionEvent)
	nextSub int
}

func NewService(
	accounts accountrepo.Repository,
	sessions sessionstore.Store,
	issuer TokenIssuer,
	clk clockport.Clock,
	opts Options,
	log *zap.Logger,
	m *metrics.Metrics,
) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		accounts: accounts,
		sessions: sessions,
		tokens:   issuer,
		clk:      clk,
		log:      logging.OrNop(log).Named("accounts"),
		m:        m,
		ttl:      opts.SessionTTL,
		cost:     opts.BcryptCost,
		newID:    uuid.NewString,
		subs:     make(map[int]func(SessionEvent)),
	}
}

// SignUp registers a new lawyer account. Self-registration never grants review roles.
func (s *Service) SignUp(ctx context.Context, email, password string) (Account, error) {
	acct, err := s.register(ctx, email, password, []domain.Role{domain.RoleLawyer})
	if err != nil {
		return Account{}, err
	}
	s.log.Info("account created", zap.String("subject", string(acct.ID)))
	return acct, nil
}

// SeedAdmin creates an administrator account for email unless one already exists.
// An existing account without the admin role is left untouched and reported as a
// conflict: it was self-registered and nobody has proven it belongs to an operator.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) (Account, error) {
	existing, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	switch {
	case err == nil:
		if !hasRole(existing.Roles, domain.RoleAdmin) {
			return Account{}, apperr.Conflict("ADMIN_EMAIL_TAKEN", "A non-admin account already uses this email.")
		}
		return toAccount(existing), nil
	case !errors.Is(err, accountrepo.ErrNotFound):
		return Account{}, apperr.Persistence("could not load account", err)
	}

	acct, err := s.register(ctx, email, password, []domain.Role{domain.RoleLawyer, domain.RoleAdmin})
	if err != nil {
		return Account{}, err
	}
	s.log.Info("admin account seeded", zap.String("subject", string(acct.ID)))
	return acct, nil
}

func (s *Service) register(ctx context.Context, email, password string, roles []domain.Role) (Account, error) {
	addr, details := validateCredentials(email, password)
	if len(details) > 0 {
		return Account{}, apperr.Validation("invalid sign-up request", details)
	}

	hash, err := hashPassword(password, s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return Account{}, apperr.Validation("invalid sign-up request", map[string]any{
				"password": "is too long",
			})
		}
		return Account{}, apperr.Persistence("could not store credentials", err)
	}

	acct := accountrepo.Account{
		ID:           domain.SubjectID(s.newID()),
		Email:        addr,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    s.clk.Now(),
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, accountrepo.ErrEmailTaken) {
			return Account{}, apperr.Auth(http.StatusConflict, "EMAIL_ALREADY_REGISTERED", "An account with this email already exists.")
		}
		return Account{}, apperr.Persistence("could not create account", err)
	}
	return toAccount(acct), nil
}

// SignIn checks credentials, stores a new session and returns its bearer token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, domain.Session, error) {
	invalid := apperr.Auth(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.")

	acct, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			s.m.IncSignIn("invalid")
			return "", domain.Session{}, invalid
		}
		return "", domain.Session{}, apperr.Persistence("could not load account", err)
	}
	if err := verifyPassword(password, acct.PasswordHash); err != nil {
		if !errors.Is(err, errPasswordMismatch) {
			s.log.Warn("password verification failed", zap.String("subject", string(acct.ID)), zap.Error(err))
		}
		s.m.IncSignIn("invalid")
		return "", domain.Session{}, invalid
	}

	now := s.clk.Now()
	sess := domain.Session{
		ID:        domain.SessionID(s.newID()),
		Subject:   acct.ID,
		Email:     acct.Email,
		Roles:     append([]domain.Role(nil), acct.Roles...),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	token, err := s.tokens.Issue(string(sess.Subject), string(sess.ID), sess.Email, roleStrings(sess.Roles), sess.IssuedAt, sess.ExpiresAt)
	if err != nil {
		return "", domain.Session{}, apperr.Auth(http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", "Could not start a session.")
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return "", domain.Session{}, apperr.Persistence("could not save session", err)
	}

	s.m.IncSignIn("ok")
	s.log.Info("signed in", zap.String("subject", string(sess.Subject)), zap.String("session_id", string(sess.ID)))
	s.publish(SessionEvent{Kind: SignedIn, Session: sess})
	return token, sess, nil
}

// SignOut removes the session record. Signing out an unknown session is not an error.
func (s *Service) SignOut(ctx context.Context, id domain.SessionID) error {
	sess, err := s.sessions.Get(ctx, id)
	found := err == nil
	if err != nil && !errors.Is(err, sessionstore.ErrNotFound) {
		return apperr.Persistence("could not load session", err)
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return apperr.Persistence("could not delete session", err)
	}
	if found {
		s.log.Info("signed out", zap.String("subject", string(sess.Subject)), zap.String("session_id", string(id)))
		s.publish(SessionEvent{Kind: SignedOut, Session: sess})
	}
	return nil
}

// Authenticate resolves a bearer token to its live session record.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Session{}, apperr.Auth(http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required.")
	}
	sess, err := s.sessions.Get(ctx, domain.SessionID(claims.SessionID))
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			return domain.Session{}, apperr.Auth(http.StatusUnauthorized, "SESSION_EXPIRED", "Your session has ended. Please sign in again.")
		}
		return domain.Session{}, apperr.Persistence("could not load session", err)
	}
	if string(sess.Subject) != claims.Subject || sess.Expired(s.clk.Now()) {
		return domain.Session{}, apperr.Auth(http.StatusUnauthorized, "SESSION_EXPIRED", "Your session has ended. Please sign in again.")
	}
	return sess, nil
}

// OnSessionChange registers fn for session events and returns a function that removes it.
// Events are delivered synchronously on the goroutine that changed the session.
func (s *Service) OnSessionChange(fn func(SessionEvent)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Close drops every subscriber.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = make(map[int]func(SessionEvent))
}

func (s *Service) publish(ev SessionEvent) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(SessionEvent), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// validateCredentials returns the normalized address and any field errors.
func validateCredentials(email, password string) (string, map[string]any) {
	details := map[string]any{}
	addr := domain.NormalizeEmail(email)
	if parsed, err := mail.ParseAddress(addr); err != nil || parsed.Address != addr {
		details["email"] = "must be a valid email address"
	}
	if len(password) < MinPasswordLength {
		details["password"] = "must be at least 6 characters"
	}
	return addr, details
}

func toAccount(a accountrepo.Account) Account {
	return Account{
		ID:        a.ID,
		Email:     a.Email,
		Roles:     append([]domain.Role(nil), a.Roles...),
		CreatedAt: a.CreatedAt,
	}
}

func hasRole(roles []domain.Role, want domain.Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

func roleStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
