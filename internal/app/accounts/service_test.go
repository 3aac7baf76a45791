package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	memaccountrepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/accountrepo"
	memclock "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/clock"
	memsessionstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/sessionstore"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/apperr"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/auth/tokens"
)

type fixture struct {
	svc      *Service
	clk      *memclock.ManualClock
	sessions *memsessionstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	sessions := memsessionstore.NewStore(clk)
	issuer := tokens.NewWithClock(tokens.Config{
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "test",
	}, clk)
	svc := NewService(memaccountrepo.NewRepo(), sessions, issuer, clk, Options{
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil, nil)
	return &fixture{svc: svc, clk: clk, sessions: sessions}
}

func authCode(t *testing.T, err error) string {
	t.Helper()
	ae, ok := apperr.As(err)
	require.True(t, ok, "want *apperr.Error, got %v", err)
	return ae.Code
}

func TestSignUp_GrantsLawyerOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	lawyer, err := f.svc.SignUp(ctx, "Asha@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", lawyer.Email)
	assert.Equal(t, []domain.Role{domain.RoleLawyer}, lawyer.Roles)
	assert.NotEmpty(t, lawyer.ID)

	// An operator address registered by anyone is still just a lawyer.
	other, err := f.svc.SignUp(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleLawyer}, other.Roles)

	_, sess, err := f.svc.SignIn(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, sess.Principal().Can(domain.CapReviewProfiles))
}

func TestSeedAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.svc.SeedAdmin(ctx, " Admin@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.Equal(t, []domain.Role{domain.RoleLawyer, domain.RoleAdmin}, admin.Roles)

	// Seeding again is a no-op.
	again, err := f.svc.SeedAdmin(ctx, "admin@example.com", "other-password")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	// Self-registration of a seeded address is refused.
	_, err = f.svc.SignUp(ctx, "admin@example.com", "secret1")
	assert.Equal(t, "EMAIL_ALREADY_REGISTERED", authCode(t, err))
}

func TestSeedAdmin_RefusesSelfRegisteredAccount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.svc.SeedAdmin(ctx, "admin@example.com", "secret1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Equal(t, "ADMIN_EMAIL_TAKEN", authCode(t, err))

	_, sess, err := f.svc.SignIn(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, sess.Principal().Can(domain.CapReviewProfiles))
}

func TestSignUp_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.SignUp(context.Background(), "Asha <asha@example.com>", "123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	ae, _ := apperr.As(err)
	assert.Contains(t, ae.Details, "email")
	assert.Contains(t, ae.Details, "password")
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.svc.SignUp(ctx, "ASHA@example.com", "secret2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrAuth))
	assert.Equal(t, "EMAIL_ALREADY_REGISTERED", authCode(t, err))
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)

	_, _, err = f.svc.SignIn(ctx, "asha@example.com", "wrong-password")
	assert.Equal(t, "INVALID_CREDENTIALS", authCode(t, err))

	_, _, err = f.svc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, "INVALID_CREDENTIALS", authCode(t, err))
}

func TestSignIn_AuthenticateSignOut(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	acct, err := f.svc.SeedAdmin(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)

	token, sess, err := f.svc.SignIn(ctx, " ADMIN@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, acct.ID, sess.Subject)
	assert.Equal(t, f.clk.Now().Add(time.Hour), sess.ExpiresAt)
	assert.True(t, sess.Principal().Can(domain.CapReviewProfiles))

	got, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.Roles, got.Roles)

	require.NoError(t, f.svc.SignOut(ctx, sess.ID))
	_, err = f.svc.Authenticate(ctx, token)
	assert.Equal(t, "SESSION_EXPIRED", authCode(t, err))

	// Signing out twice is fine.
	require.NoError(t, f.svc.SignOut(ctx, sess.ID))
}

func TestAuthenticate_RejectsGarbageAndExpired(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Authenticate(ctx, "not-a-token")
	assert.Equal(t, "UNAUTHENTICATED", authCode(t, err))

	_, err = f.svc.SignUp(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	token, _, err := f.svc.SignIn(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)

	f.clk.Advance(2 * time.Hour)
	_, err = f.svc.Authenticate(ctx, token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrAuth))
}

func TestOnSessionChange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)

	var got []EventKind
	unsubscribe := f.svc.OnSessionChange(func(ev SessionEvent) {
		got = append(got, ev.Kind)
	})

	_, sess, err := f.svc.SignIn(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.SignOut(ctx, sess.ID))
	assert.Equal(t, []EventKind{SignedIn, SignedOut}, got)

	unsubscribe()
	_, _, err = f.svc.SignIn(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestClose_DropsSubscribers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)

	calls := 0
	f.svc.OnSessionChange(func(SessionEvent) { calls++ })
	f.svc.Close()

	_, _, err = f.svc.SignIn(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := hashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, verifyPassword("secret1", hash))
	assert.ErrorIs(t, verifyPassword("secret2", hash), errPasswordMismatch)
}
