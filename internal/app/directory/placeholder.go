package directory

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

//go:embed placeholder.yaml
var placeholderYAML []byte

type placeholderEntry struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	Age               int      `yaml:"age"`
	BarAssociation    string   `yaml:"barAssociation"`
	YearsOfPractice   int      `yaml:"yearsOfPractice"`
	Specializations   []string `yaml:"specializations"`
	MobileNo          string   `yaml:"mobileNo"`
	City              string   `yaml:"city"`
	PreferredLanguage string   `yaml:"preferredLanguage"`
	Bio               string   `yaml:"bio"`
}

// loadPlaceholders decodes the embedded fallback dataset. Entries are shown as approved.
func loadPlaceholders(raw []byte) ([]domain.Profile, error) {
	var entries []placeholderEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode placeholder dataset: %w", err)
	}
	out := make([]domain.Profile, 0, len(entries))
	for _, e := range entries {
		lang, ok := domain.ParseLanguage(e.PreferredLanguage)
		if !ok {
			return nil, fmt.Errorf("placeholder %s: unknown language %q", e.ID, e.PreferredLanguage)
		}
		specs := make([]domain.Specialization, 0, len(e.Specializations))
		for _, s := range e.Specializations {
			sp, ok := domain.ParseSpecialization(s)
			if !ok {
				return nil, fmt.Errorf("placeholder %s: unknown specialization %q", e.ID, s)
			}
			specs = append(specs, sp)
		}
		out = append(out, domain.Profile{
			ID:                domain.ProfileID(e.ID),
			Name:              e.Name,
			Age:               e.Age,
			BarAssociation:    e.BarAssociation,
			YearsOfPractice:   e.YearsOfPractice,
			Specializations:   specs,
			MobileNo:          e.MobileNo,
			City:              e.City,
			PreferredLanguage: lang,
			Bio:               e.Bio,
			Approved:          true,
		})
	}
	return out, nil
}
