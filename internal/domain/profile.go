package domain

import (
	"regexp"
	"strings"
	"time"
)

// MaxSpecializations bounds how many practice areas a profile may list.
const MaxSpecializations = 3

// Specialization is a practice area from the fixed directory set.
type Specialization string

const (
	SpecCivil        Specialization = "Civil law"
	SpecCriminal     Specialization = "Criminal law"
	SpecFamily       Specialization = "Family law"
	SpecMediation    Specialization = "Mediation & Arbitration law"
	SpecProperty     Specialization = "Property law"
	SpecMotorVehicle Specialization = "Motor vehicle law"
	SpecInsurance    Specialization = "Insurance law"
	SpecBanking      Specialization = "Banking law"
	SpecRecovery     Specialization = "Recovery law"
	SpecCorporate    Specialization = "Corporate law"
	SpecIPR          Specialization = "IPR law"
)

var specializations = []Specialization{
	SpecCivil,
	SpecCriminal,
	SpecFamily,
	SpecMediation,
	SpecProperty,
	SpecMotorVehicle,
	SpecInsurance,
	SpecBanking,
	SpecRecovery,
	SpecCorporate,
	SpecIPR,
}

// Specializations returns the fixed practice-area list in display order.
func Specializations() []Specialization {
	out := make([]Specialization, len(specializations))
	copy(out, specializations)
	return out
}

// ParseSpecialization matches s case-insensitively against the fixed set.
func ParseSpecialization(s string) (Specialization, bool) {
	s = strings.TrimSpace(s)
	for _, sp := range specializations {
		if strings.EqualFold(string(sp), s) {
			return sp, true
		}
	}
	return "", false
}

// Language is the preferred language a lawyer consults in.
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageHindi   Language = "Hindi"
)

func ParseLanguage(s string) (Language, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), string(LanguageEnglish)):
		return LanguageEnglish, true
	case strings.EqualFold(strings.TrimSpace(s), string(LanguageHindi)):
		return LanguageHindi, true
	default:
		return "", false
	}
}

var barLicensePattern = regexp.MustCompile(`^[A-Z]{2}\d{1,6}/\d{4}$`)

// ValidBarLicense reports whether s looks like a state bar enrolment number, e.g. MH1234/2015.
func ValidBarLicense(s string) bool {
	return barLicensePattern.MatchString(s)
}

// Profile is a lawyer's directory entry.
type Profile struct {
	ID    ProfileID
	Owner SubjectID

	Name            string
	PhotoPath       *string
	Age             int
	BarLicenseNo    *string
	BarAssociation  string
	YearsOfPractice int
	Specializations []Specialization
	MobileNo        string
	City            string

	PreferredLanguage Language
	Bio               string

	// Approved gates directory visibility. Only reviewers change it.
	Approved bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSpecialization reports exact membership of sp in the profile's list.
func (p Profile) HasSpecialization(sp Specialization) bool {
	for _, s := range p.Specializations {
		if s == sp {
			return true
		}
	}
	return false
}

// ApprovalFilter selects profiles by approval state in the review queue.
type ApprovalFilter string

const (
	FilterPending  ApprovalFilter = "pending"
	FilterApproved ApprovalFilter = "approved"
	FilterAll      ApprovalFilter = "all"
)

func ParseApprovalFilter(s string) (ApprovalFilter, bool) {
	switch ApprovalFilter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterPending:
		return FilterPending, true
	case FilterApproved:
		return FilterApproved, true
	case FilterAll:
		return FilterAll, true
	default:
		return "", false
	}
}

func (f ApprovalFilter) Matches(p Profile) bool {
	switch f {
	case FilterPending:
		return !p.Approved
	case FilterApproved:
		return p.Approved
	default:
		return true
	}
}
