package tokens_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/auth/tokens"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

var testCfg = tokens.Config{
	SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	Issuer:     "test-iss",
	Audience:   "test-aud",
}

func TestIssuer_Verify_ValidToken(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	iss := tokens.NewWithClock(testCfg, clk)

	tok, err := iss.Issue("sub-1", "sess-1", "asha@example.com", []string{"lawyer"}, clk.Now(), clk.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "sub-1" || claims.SessionID != "sess-1" || claims.Email != "asha@example.com" {
		t.Fatalf("claims=%+v", claims)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "lawyer" {
		t.Fatalf("roles=%v", claims.Roles)
	}
}

func TestIssuer_Verify_Expired(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	iss := tokens.NewWithClock(testCfg, clk)

	tok, err := iss.Issue("sub-1", "sess-1", "", nil, clk.Now(), clk.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	clk.Advance(2 * time.Minute)
	if _, err := iss.Verify(tok); !errors.Is(err, tokens.ErrUnauthorized) {
		t.Fatalf("Verify err=%v, want ErrUnauthorized", err)
	}
}

func TestIssuer_Verify_WrongKeyOrIssuer(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	iss := tokens.NewWithClock(testCfg, clk)

	otherKey := testCfg
	otherKey.SigningKey = []byte("ffffffffffffffffffffffffffffffff")
	tok, _ := tokens.NewWithClock(otherKey, clk).Issue("sub-1", "sess-1", "", nil, clk.Now(), clk.Now().Add(time.Hour))
	if _, err := iss.Verify(tok); !errors.Is(err, tokens.ErrUnauthorized) {
		t.Fatalf("wrong key err=%v", err)
	}

	otherIss := testCfg
	otherIss.Issuer = "someone-else"
	tok, _ = tokens.NewWithClock(otherIss, clk).Issue("sub-1", "sess-1", "", nil, clk.Now(), clk.Now().Add(time.Hour))
	if _, err := iss.Verify(tok); !errors.Is(err, tokens.ErrUnauthorized) {
		t.Fatalf("wrong issuer err=%v", err)
	}
}

func TestIssuer_Verify_RejectsNoneAlg(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	iss := tokens.NewWithClock(testCfg, clk)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, tokens.Claims{
		SessionID: "sess-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-1",
			Issuer:    testCfg.Issuer,
			Audience:  jwt.ClaimStrings{testCfg.Audience},
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	if _, err := iss.Verify(tok); !errors.Is(err, tokens.ErrUnauthorized) {
		t.Fatalf("none alg err=%v", err)
	}
}
