package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	acct, err := s.Accounts.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}

	// A lawyer registered before having an account gets that profile bound to the new account.
	var claimed *domain.Profile
	lic, mobile := deref(req.BarLicenseNo), deref(req.MobileNo)
	if lic != "" || mobile != "" {
		p, ok, err := s.Profiles.ClaimExisting(r.Context(), acct.ID, lic, mobile)
		switch {
		case err != nil:
			s.log.Warn("profile claim failed", zap.String("subject", string(acct.ID)), zap.Error(err))
		case ok:
			claimed = &p
		}
	}
	writeJSON(w, http.StatusCreated, signUpResponse(acct, claimed))
}

func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	token, sess, err := s.Accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, SignInResponse{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		User:      sessionUserFromDomain(sess),
	})
}

func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if err := s.Accounts.SignOut(r.Context(), sess.ID); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
		return
	}
	u := sessionUserFromDomain(sess)
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: true, User: &u})
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
