package domain

import "time"

// Role is a coarse grant carried by a session.
type Role string

const (
	RoleLawyer   Role = "lawyer"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

// Capability is a single permission checked by application services.
type Capability string

const (
	// CapReviewProfiles allows listing every profile and toggling approval.
	CapReviewProfiles Capability = "profiles:review"
)

var roleCapabilities = map[Role][]Capability{
	RoleReviewer: {CapReviewProfiles},
	RoleAdmin:    {CapReviewProfiles},
}

// Principal is whoever is calling an application service.
type Principal interface {
	Subject() SubjectID
	Authenticated() bool
	Can(c Capability) bool
}

// Session is the authenticated state attached to a request.
type Session struct {
	ID      SessionID
	Subject SubjectID
	Email   string
	Roles   []Role

	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// HasRole reports whether r was granted to the session.
func (s Session) HasRole(r Role) bool {
	for _, have := range s.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Principal returns the session as a Principal.
func (s Session) Principal() Principal { return sessionPrincipal{s: s} }

type sessionPrincipal struct{ s Session }

func (p sessionPrincipal) Subject() SubjectID  { return p.s.Subject }
func (p sessionPrincipal) Authenticated() bool { return p.s.Subject != "" }

func (p sessionPrincipal) Can(c Capability) bool {
	if p.s.Subject == "" {
		return false
	}
	for _, r := range p.s.Roles {
		for _, have := range roleCapabilities[r] {
			if have == c {
				return true
			}
		}
	}
	return false
}

// Anonymous is the principal of an unauthenticated visitor.
func Anonymous() Principal { return sessionPrincipal{} }
