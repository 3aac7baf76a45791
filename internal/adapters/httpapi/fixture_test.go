package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	memaccountrepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/accountrepo"
	memassetstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/assetstore"
	memclock "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/clock"
	memidempotency "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/idempotency"
	memprofilerepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/profilerepo"
	memsessionstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/sessionstore"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/accounts"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/directory"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/profiles"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/review"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/auth/tokens"
)

type testAPI struct {
	h        http.Handler
	clk      *memclock.ManualClock
	profiles *memprofilerepo.Repo
	assets   *memassetstore.Store
	accounts *accounts.Service
}

type testAPIOptions struct {
	dev       bool
	rateLimit int
	proxies   []netip.Prefix
}

func newTestAPI(t *testing.T, o testAPIOptions) *testAPI {
	t.Helper()

	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	profileRepo := memprofilerepo.NewRepo()
	assets := memassetstore.NewStore("http://assets.test")

	profileSvc := profiles.NewService(profileRepo, assets, clk, nil, nil)
	issuer := tokens.NewWithClock(tokens.Config{
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "test",
	}, clk)
	acctSvc := accounts.NewService(memaccountrepo.NewRepo(), memsessionstore.NewStore(clk), issuer, clk, accounts.Options{
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil, nil)
	if _, err := acctSvc.SeedAdmin(context.Background(), "admin@example.com", "secret1"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	opts := directory.DefaultOptions()
	opts.Delay = 0
	engine, err := directory.NewEngine(profileRepo, opts, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	api := NewServer(Services{
		Accounts:  acctSvc,
		Profiles:  profileSvc,
		Directory: engine,
		Review:    review.NewService(profileRepo, profileSvc, nil),
	}, memidempotency.NewStoreWithOptions(clk, time.Hour), clk, nil)

	authMW := NewSessionAuthMiddleware(acctSvc)
	if o.dev {
		authMW = NewDevAuthMiddleware("")
	}
	h := NewRouterWithOptions(api, RouterOptions{
		AuthMiddleware:         authMW,
		AuthRateLimitPerMinute: o.rateLimit,
		TrustedProxies:         o.proxies,
	})
	return &testAPI{h: h, clk: clk, profiles: profileRepo, assets: assets, accounts: acctSvc}
}

type request struct {
	method  string
	path    string
	token   string
	headers map[string]string
	body    any
}

func (a *testAPI) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

// signIn registers email and returns a bearer token for it.
func (a *testAPI) signIn(t *testing.T, email string) string {
	t.Helper()
	rec := a.do(t, request{method: http.MethodPost, path: "/auth/signup", body: map[string]any{
		"email": email, "password": "secret1",
	}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status=%d body=%s", rec.Code, rec.Body.String())
	}
	return a.login(t, email)
}

// login signs in an existing account.
func (a *testAPI) login(t *testing.T, email string) string {
	t.Helper()
	rec := a.do(t, request{method: http.MethodPost, path: "/auth/signin", body: map[string]any{
		"email": email, "password": "secret1",
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin status=%d body=%s", rec.Code, rec.Body.String())
	}
	return decode[SignInResponse](t, rec).Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, rec.Body.String())
	}
	return out
}

type errorEnvelope struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestId string         `json:"requestId"`
	} `json:"error"`
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) errorEnvelope {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", rec.Code, wantStatus, rec.Body.String())
	}
	got := decode[errorEnvelope](t, rec)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, rec.Body.String())
	}
	return got
}

func validProfileBody(name string) map[string]any {
	return map[string]any{
		"name":              name,
		"age":               41,
		"barLicenseNo":      "MH1234/2015",
		"barAssociation":    "Bar Council of Maharashtra & Goa",
		"yearsOfPractice":   12,
		"specializations":   []string{"Civil law", "property law"},
		"mobileNo":          "+91 98200 00000",
		"city":              "Mumbai",
		"preferredLanguage": "English",
		"bio":               "Civil and property disputes.",
	}
}

func (a *testAPI) profileCount(t *testing.T) int {
	t.Helper()
	all, err := a.profiles.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	return len(all)
}
