package httpapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

func TestCreateProfile_JSON(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	token := api.signIn(t, "asha@example.com")

	rec := api.do(t, request{method: http.MethodPost, path: "/profiles", token: token, body: validProfileBody("  Asha   Rao ")})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	p := decode[ProfileResponse](t, rec).Profile
	if p.Name != "Asha Rao" || p.Approved {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if want := []string{"Civil law", "Property law"}; strings.Join(p.Specializations, "|") != strings.Join(want, "|") {
		t.Fatalf("specializations=%v want %v", p.Specializations, want)
	}
	if !p.PhotoUrl.IsNull() {
		t.Fatalf("expected null photoUrl")
	}
	if lic, err := p.BarLicenseNo.Get(); err != nil || lic != "MH1234/2015" {
		t.Fatalf("barLicenseNo=%q err=%v", lic, err)
	}

	rec = api.do(t, request{method: http.MethodGet, path: "/profiles/me", token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("me status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[ProfileResponse](t, rec).Profile.Id; got != p.Id {
		t.Fatalf("me id=%s want %s", got, p.Id)
	}

	rec = api.do(t, request{method: http.MethodPost, path: "/profiles", token: token, body: validProfileBody("Asha Rao")})
	requireError(t, rec, http.StatusConflict, "PROFILE_ALREADY_EXISTS")
}

func TestCreateProfile_RequiresSession(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	rec := api.do(t, request{method: http.MethodPost, path: "/profiles", body: validProfileBody("Asha Rao")})
	requireError(t, rec, http.StatusUnauthorized, "UNAUTHENTICATED")
	if api.profileCount(t) != 0 {
		t.Fatalf("expected no profile to be stored")
	}
}

func TestCreateProfile_Validation(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	token := api.signIn(t, "asha@example.com")

	body := validProfileBody("Asha Rao")
	body["specializations"] = []string{"Civil law", "Criminal law", "Family law", "IPR law"}
	body["preferredLanguage"] = "Marathi"
	rec := api.do(t, request{method: http.MethodPost, path: "/profiles", token: token, body: body})
	er := requireError(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	for _, k := range []string{"specializations", "preferredLanguage"} {
		if _, ok := er.Error.Details[k]; !ok {
			t.Fatalf("missing detail %q in %v", k, er.Error.Details)
		}
	}
}

func TestGetMyProfile_NotFound(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	token := api.signIn(t, "asha@example.com")
	rec := api.do(t, request{method: http.MethodGet, path: "/profiles/me", token: token})
	requireError(t, rec, http.StatusNotFound, "PROFILE_NOT_FOUND")
}

func TestCreateProfile_IdempotencyReplayAndReuse(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	token := api.signIn(t, "asha@example.com")
	headers := map[string]string{"Idempotency-Key": "idem-1"}

	first := api.do(t, request{method: http.MethodPost, path: "/profiles", token: token, headers: headers, body: validProfileBody("Asha Rao")})
	if first.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", first.Code, first.Body.String())
	}

	// Whitespace differences in the name normalize to the same request.
	replay := api.do(t, request{method: http.MethodPost, path: "/profiles", token: token, headers: headers, body: validProfileBody(" Asha  Rao")})
	if replay.Code != http.StatusCreated {
		t.Fatalf("replay status=%d body=%s", replay.Code, replay.Body.String())
	}
	if replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay header")
	}
	if decode[ProfileResponse](t, replay).Profile.Id != decode[ProfileResponse](t, first).Profile.Id {
		t.Fatalf("replayed a different profile")
	}

	changed := validProfileBody("Asha Rao")
	changed["city"] = "Pune"
	rec := api.do(t, request{method: http.MethodPost, path: "/profiles", token: token, headers: headers, body: changed})
	requireError(t, rec, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")

	if api.profileCount(t) != 1 {
		t.Fatalf("profiles stored=%d want 1", api.profileCount(t))
	}
}

func TestCreateProfile_IdempotencyKeyReusableAfterFailure(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	token := api.signIn(t, "asha@example.com")
	headers := map[string]string{"Idempotency-Key": "idem-retry"}

	bad := validProfileBody("Asha Rao")
	bad["preferredLanguage"] = "Marathi"
	rec := api.do(t, request{method: http.MethodPost, path: "/profiles", token: token, headers: headers, body: bad})
	requireError(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	// The corrected request reuses the key.
	rec = api.do(t, request{method: http.MethodPost, path: "/profiles", token: token, headers: headers, body: validProfileBody("Asha Rao")})
	if rec.Code != http.StatusCreated {
		t.Fatalf("retry status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("first success must not be a replay")
	}

	// Once it succeeded, the key is bound to that payload.
	rec = api.do(t, request{method: http.MethodPost, path: "/profiles", token: token, headers: headers, body: bad})
	requireError(t, rec, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")

	if api.profileCount(t) != 1 {
		t.Fatalf("profiles stored=%d want 1", api.profileCount(t))
	}
}

func TestCreateProfile_MultipartWithPhoto(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	token := api.signIn(t, "asha@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":              "Asha Rao",
		"age":               "41",
		"barAssociation":    "Bar Council of Maharashtra & Goa",
		"yearsOfPractice":   "12",
		"specializations":   "Civil law, Family law",
		"mobileNo":          "+91 98200 00000",
		"city":              "Mumbai",
		"preferredLanguage": "hindi",
		"bio":               "Family matters.",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="My Photo.PNG"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	_, _ = part.Write([]byte("\x89PNG fake image bytes"))
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/profiles", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	p := decode[ProfileResponse](t, rec).Profile
	u, err := p.PhotoUrl.Get()
	if err != nil || !strings.HasPrefix(u, "http://assets.test/") || !strings.HasSuffix(u, "my-photo.png") {
		t.Fatalf("photoUrl=%q err=%v", u, err)
	}
	if p.PreferredLanguage != "Hindi" || len(p.Specializations) != 2 {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if api.assets.Len() != 1 {
		t.Fatalf("assets stored=%d want 1", api.assets.Len())
	}
}

func TestCreateProfile_MultipartBadNumber(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	token := api.signIn(t, "asha@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Asha Rao")
	_ = mw.WriteField("age", "forty")
	_ = mw.WriteField("yearsOfPractice", "12")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/profiles", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.h.ServeHTTP(rec, req)

	er := requireError(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	if _, ok := er.Error.Details["age"]; !ok {
		t.Fatalf("expected age detail, got %v", er.Error.Details)
	}
}
