package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

// statusFilter reads ?status=, defaulting to pending. Unknown values pass through so the
// review service can reject them.
func statusFilter(r *http.Request) domain.ApprovalFilter {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return domain.FilterPending
	}
	if f, ok := domain.ParseApprovalFilter(raw); ok {
		return f
	}
	return domain.ApprovalFilter(raw)
}

func (s *Server) ListReviewProfiles(w http.ResponseWriter, r *http.Request) {
	filter := statusFilter(r)
	ps, err := s.Review.ListProfiles(r.Context(), PrincipalFromContext(r.Context()), filter)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ReviewListResponse{
		Status:   string(filter),
		Profiles: s.profilesWithPhotos(r.Context(), ps),
	})
}

func (s *Server) ApproveProfile(w http.ResponseWriter, r *http.Request) {
	s.setApproval(w, r, true)
}

func (s *Server) RejectProfile(w http.ResponseWriter, r *http.Request) {
	s.setApproval(w, r, false)
}

// setApproval applies the decision through a review queue and returns the queue as it
// stands afterwards, so the caller can redraw without another list request.
func (s *Server) setApproval(w http.ResponseWriter, r *http.Request, approved bool) {
	ctx := r.Context()
	q, err := s.Review.Open(ctx, PrincipalFromContext(ctx), statusFilter(r))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	id := domain.ProfileID(chi.URLParam(r, "id"))
	var p domain.Profile
	if approved {
		p, err = q.Approve(ctx, id)
	} else {
		p, err = q.Reject(ctx, id)
	}
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ReviewActionResponse{
		Profile:  s.profileWithPhoto(ctx, p),
		Profiles: s.profilesWithPhotos(ctx, q.Items()),
	})
}
