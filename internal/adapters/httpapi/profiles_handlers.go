package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/apperr"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/profiles"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

// multipartSlack is room for the non-file form fields on top of the photo limit.
const multipartSlack = 1 << 20

// profileBodyFingerprint is hashed for Idempotency-Key matching.
type profileBodyFingerprint struct {
	Form        CreateProfileRequest `json:"form"`
	PhotoName   string               `json:"photoName,omitempty"`
	PhotoType   string               `json:"photoType,omitempty"`
	PhotoSHA256 string               `json:"photoSha256,omitempty"`
}

func (s *Server) CreateProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var (
		req   CreateProfileRequest
		photo *photoPart
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var err error
		req, photo, err = s.readMultipartProfile(w, r)
		if err != nil {
			writeAppError(w, r, s.log, err)
			return
		}
	} else if !s.decodeJSON(w, r, &req) {
		return
	}

	fp := profileBodyFingerprint{Form: req}
	fp.Form.Name = domain.NormalizeHumanName(fp.Form.Name)
	if photo != nil {
		fp.PhotoName = photo.filename
		fp.PhotoType = photo.contentType
		fp.PhotoSHA256 = photo.digest()
	}
	bodyHash, err := hashJSON(fp)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	respFP, idem, handled := s.beginIdempotent(w, r, sess.Subject, "/profiles", bodyHash)
	if handled {
		return
	}

	in := profiles.CreateProfileInput{
		Name:              req.Name,
		Age:               req.Age,
		BarLicenseNo:      req.BarLicenseNo,
		BarAssociation:    req.BarAssociation,
		YearsOfPractice:   req.YearsOfPractice,
		Specializations:   req.Specializations,
		MobileNo:          req.MobileNo,
		City:              req.City,
		PreferredLanguage: req.PreferredLanguage,
		Bio:               req.Bio,
	}
	if photo != nil {
		in.Photo = &profiles.PhotoUpload{
			Filename:    photo.filename,
			ContentType: photo.contentType,
			Size:        int64(len(photo.data)),
			Body:        bytes.NewReader(photo.data),
		}
	}

	p, err := s.Profiles.CreateProfile(r.Context(), sess.Subject, in)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	s.finishIdempotent(w, r, respFP, idem, http.StatusCreated, ProfileResponse{Profile: s.profileWithPhoto(r.Context(), p)})
}

func (s *Server) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	p, err := s.Profiles.GetMyProfile(r.Context(), sess.Subject)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Profile: s.profileWithPhoto(r.Context(), p)})
}

type photoPart struct {
	filename    string
	contentType string
	data        []byte
}

func (p *photoPart) digest() string {
	sum := sha256.Sum256(p.data)
	return hex.EncodeToString(sum[:])
}

// readMultipartProfile reads the registration form fields and the optional "photo" file part.
func (s *Server) readMultipartProfile(w http.ResponseWriter, r *http.Request) (CreateProfileRequest, *photoPart, error) {
	limit := s.Profiles.MaxPhotoBytes + multipartSlack
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return CreateProfileRequest{}, nil, apperr.Validation("invalid profile", map[string]any{
				"photo": "upload is too large",
			})
		}
		return CreateProfileRequest{}, nil, apperr.Validation("invalid multipart form", nil)
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	details := map[string]any{}
	form := r.MultipartForm.Value
	get := func(k string) string {
		if vs := form[k]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}
	atoi := func(k string) int {
		v := strings.TrimSpace(get(k))
		n, err := strconv.Atoi(v)
		if err != nil {
			details[k] = "must be a whole number"
		}
		return n
	}

	req := CreateProfileRequest{
		Name:              get("name"),
		Age:               atoi("age"),
		BarAssociation:    get("barAssociation"),
		YearsOfPractice:   atoi("yearsOfPractice"),
		Specializations:   splitSpecializations(form["specializations"]),
		MobileNo:          get("mobileNo"),
		City:              get("city"),
		PreferredLanguage: get("preferredLanguage"),
		Bio:               get("bio"),
	}
	if lic := get("barLicenseNo"); strings.TrimSpace(lic) != "" {
		req.BarLicenseNo = &lic
	}
	if len(details) > 0 {
		return CreateProfileRequest{}, nil, apperr.Validation("invalid profile", details)
	}

	files := r.MultipartForm.File["photo"]
	if len(files) == 0 {
		return req, nil, nil
	}
	fh := files[0]
	var f openapi_types.File
	f.InitFromMultipart(fh)
	data, err := f.Bytes()
	if err != nil {
		return CreateProfileRequest{}, nil, apperr.Validation("invalid profile", map[string]any{
			"photo": "could not be read",
		})
	}
	return req, &photoPart{
		filename:    f.Filename(),
		contentType: fh.Header.Get("Content-Type"),
		data:        data,
	}, nil
}

// splitSpecializations accepts repeated fields and comma-separated values.
func splitSpecializations(vs []string) []string {
	var out []string
	for _, v := range vs {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
