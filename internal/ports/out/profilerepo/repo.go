package profilerepo

import (
	"context"
	"time"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

// Profile is the persistence shape of a lawyer profile.
// It is an internal record, not an HTTP DTO.
type Profile struct {
	ID    domain.ProfileID
	Owner domain.SubjectID

	Name            string
	PhotoPath       *string
	Age             int
	BarLicenseNo    *string
	BarAssociation  string
	YearsOfPractice int
	Specializations []domain.Specialization
	MobileNo        string
	City            string

	PreferredLanguage domain.Language
	Bio               string

	Approved bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted lawyer profiles.
//
// Result ordering expectations:
// - ListApproved orders by Name ascending (case-insensitive), ties by ID.
// - ListAll orders by CreatedAt descending, ties by ID ascending.
//
// One profile per owner is an application rule; implementations do not enforce it.
type Repository interface {
	Create(ctx context.Context, p Profile) error

	GetByID(ctx context.Context, id domain.ProfileID) (Profile, error)
	// GetByOwner returns the oldest profile bound to owner.
	GetByOwner(ctx context.Context, owner domain.SubjectID) (Profile, error)

	ListApproved(ctx context.Context) ([]Profile, error)
	ListAll(ctx context.Context) ([]Profile, error)

	// SetApproval stores the approval flag and returns the updated record.
	SetApproval(ctx context.Context, id domain.ProfileID, approved bool, at time.Time) (Profile, error)

	// FindClaimable returns the oldest unowned profile matching barLicenseNo or mobileNo.
	// Empty arguments never match.
	FindClaimable(ctx context.Context, barLicenseNo, mobileNo string) (Profile, error)
	// BindOwner assigns owner to an unowned profile. It returns ErrNotFound when the
	// profile is missing or already owned.
	BindOwner(ctx context.Context, id domain.ProfileID, owner domain.SubjectID, at time.Time) error
}
