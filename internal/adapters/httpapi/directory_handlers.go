package httpapi

import (
	"net/http"
	"strings"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/directory"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

// GetDirectory lists approved profiles. Query params: q (name or city substring),
// specialization (one of the fixed set) and city (exact).
func (s *Server) GetDirectory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := directory.Criteria{
		SearchTerm: q.Get("q"),
		City:       strings.TrimSpace(q.Get("city")),
	}
	if raw := strings.TrimSpace(q.Get("specialization")); raw != "" {
		sp, ok := domain.ParseSpecialization(raw)
		if !ok {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Unknown specialization.", map[string]any{
				"specialization": "must be one of the listed specializations",
			})
			return
		}
		c.Specialization = sp
	}

	view, err := s.Directory.Query(r.Context(), c)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	specs := make([]string, 0, len(view.Specializations))
	for _, sp := range view.Specializations {
		specs = append(specs, string(sp))
	}
	writeJSON(w, http.StatusOK, DirectoryResponse{
		Profiles:        s.profilesWithPhotos(r.Context(), view.Profiles),
		Cities:          nonNilStrings(view.Cities),
		Specializations: specs,
		Source:          string(view.Source),
	})
}

func (s *Server) ListSpecializations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SpecializationsResponse{Specializations: specializationNames()})
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
