// Package tokens issues and verifies HS256 session bearer tokens.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Config struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

// Claims is the token payload. The session record referenced by SessionID is authoritative;
// Email and Roles are informational copies.
type Claims struct {
	SessionID string   `json:"sid"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type Issuer struct {
	cfg   Config
	clock Clock
}

func New(cfg Config) *Issuer {
	return NewWithClock(cfg, nil)
}

func NewWithClock(cfg Config, clock Clock) *Issuer {
	if clock == nil {
		clock = realClock{}
	}
	return &Issuer{cfg: cfg, clock: clock}
}

// Issue signs a token for subject bound to sessionID, valid until expiresAt.
func (i *Issuer) Issue(subject, sessionID, email string, roles []string, issuedAt, expiresAt time.Time) (string, error) {
	if len(i.cfg.SigningKey) == 0 {
		return "", errors.New("tokens: empty signing key")
	}
	claims := Claims{
		SessionID: sessionID,
		Email:     email,
		Roles:     roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        sessionID,
		},
	}
	if i.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{i.cfg.Audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience and time claims and returns the claims.
// Every failure maps to ErrUnauthorized.
func (i *Issuer) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(i.cfg.ClockSkew),
		jwt.WithTimeFunc(i.clock.Now),
	}
	if i.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(i.cfg.Audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.cfg.SigningKey, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}
