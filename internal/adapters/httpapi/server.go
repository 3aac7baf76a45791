package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/accounts"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/directory"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/profiles"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/review"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/logging"
	clockport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/idempotency"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// Services are the application services the HTTP layer delegates to.
type Services struct {
	Accounts  *accounts.Service
	Profiles  *profiles.Service
	Directory *directory.Engine
	Review    *review.Service
}

type Server struct {
	Accounts  *accounts.Service
	Profiles  *profiles.Service
	Directory *directory.Engine
	Review    *review.Service
	Idem      idempotency.Store

	clk clockport.Clock
	log *zap.Logger
}

func NewServer(svcs Services, idem idempotency.Store, clk clockport.Clock, log *zap.Logger) *Server {
	return &Server{
		Accounts:  svcs.Accounts,
		Profiles:  svcs.Profiles,
		Directory: svcs.Directory,
		Review:    svcs.Review,
		Idem:      idem,
		clk:       clk,
		log:       logging.OrNop(log).Named("http"),
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large", nil)
			return false
		}
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return false
	}
	return true
}

// profilesWithPhotos renders ps with resolved photo URLs. Resolution failures are logged and rendered as null.
func (s *Server) profilesWithPhotos(ctx context.Context, ps []domain.Profile) []LawyerProfile {
	out := make([]LawyerProfile, 0, len(ps))
	for _, p := range ps {
		out = append(out, s.profileWithPhoto(ctx, p))
	}
	return out
}

func (s *Server) profileWithPhoto(ctx context.Context, p domain.Profile) LawyerProfile {
	u, err := s.Profiles.PhotoURL(ctx, p)
	if err != nil {
		s.log.Warn("photo url unavailable", zap.String("profile_id", string(p.ID)), zap.Error(err))
		u = ""
	}
	return profileFromDomain(p, u)
}

// Idempotency handling (v1):
// - Replay if same actor+key+route+bodyHash
// - Reject if same actor+key+route with different bodyHash (409)
// - Nothing is recorded for failed requests, so a corrected retry may reuse the key
//
// beginIdempotent returns the response fingerprint to store on success. It reports
// handled=true when it has already written the response (replay or conflict).
func (s *Server) beginIdempotent(w http.ResponseWriter, r *http.Request, sub domain.SubjectID, route, bodyHash string) (respFP idempotency.Fingerprint, enabled bool, handled bool) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" || s.Idem == nil {
		return idempotency.Fingerprint{}, false, false
	}
	ctx := r.Context()
	metaFP := idempotency.Fingerprint{
		Key:      idempotency.Key(key),
		Subject:  sub,
		Method:   r.Method,
		Route:    route,
		BodyHash: "",
	}
	if meta, ok, err := s.Idem.Get(ctx, metaFP); err != nil {
		writeAppError(w, r, s.log, err)
		return idempotency.Fingerprint{}, false, true
	} else if ok && string(meta.Body) != bodyHash {
		writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
		return idempotency.Fingerprint{}, false, true
	}

	respFP = metaFP
	respFP.BodyHash = bodyHash
	if rec, ok, err := s.Idem.Get(ctx, respFP); err != nil {
		writeAppError(w, r, s.log, err)
		return idempotency.Fingerprint{}, false, true
	} else if ok && rec.StatusCode != 0 && strings.HasPrefix(rec.ContentType, "application/json") {
		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return idempotency.Fingerprint{}, false, true
	}
	return respFP, true, false
}

// finishIdempotent stores a successful response for replay, then claims the key for
// this payload, and writes the response.
func (s *Server) finishIdempotent(w http.ResponseWriter, r *http.Request, respFP idempotency.Fingerprint, enabled bool, status int, resp any) {
	if enabled {
		if b, err := json.Marshal(resp); err == nil {
			now := s.clk.Now().UTC()
			_ = s.Idem.Put(r.Context(), respFP, idempotency.Record{
				StatusCode:  status,
				ContentType: "application/json",
				Body:        b,
				CreatedAt:   now,
			})
			metaFP := respFP
			metaFP.BodyHash = ""
			_ = s.Idem.Put(r.Context(), metaFP, idempotency.Record{
				StatusCode:  0,
				ContentType: "text/plain",
				Body:        []byte(respFP.BodyHash),
				CreatedAt:   now,
			})
		}
	}
	writeJSON(w, status, resp)
}

func hashJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
