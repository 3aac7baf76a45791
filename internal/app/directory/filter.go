package directory

import (
	"sort"
	"strings"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

// Criteria narrows a directory listing. Zero values match everything.
type Criteria struct {
	// SearchTerm is matched case-insensitively as a substring of name or city.
	SearchTerm     string
	Specialization domain.Specialization
	City           string
}

func (c Criteria) empty() bool {
	return strings.TrimSpace(c.SearchTerm) == "" && c.Specialization == "" && c.City == ""
}

// Filter returns the profiles matching every non-empty criterion, in input order.
func Filter(profiles []domain.Profile, c Criteria) []domain.Profile {
	if c.empty() {
		return profiles
	}
	term := strings.ToLower(strings.TrimSpace(c.SearchTerm))

	out := make([]domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.City), term) {
			continue
		}
		if c.Specialization != "" && !p.HasSpecialization(c.Specialization) {
			continue
		}
		if c.City != "" && p.City != c.City {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Cities returns the distinct non-empty cities in profiles, sorted ascending.
func Cities(profiles []domain.Profile) []string {
	seen := make(map[string]struct{}, len(profiles))
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p.City == "" {
			continue
		}
		if _, ok := seen[p.City]; ok {
			continue
		}
		seen[p.City] = struct{}{}
		out = append(out, p.City)
	}
	sort.Strings(out)
	return out
}
