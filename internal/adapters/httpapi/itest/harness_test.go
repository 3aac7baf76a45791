package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/httpapi"
	memaccountrepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/accountrepo"
	memassetstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/assetstore"
	memclock "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/clock"
	memidempotency "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/idempotency"
	memprofilerepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/profilerepo"
	memsessionstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/sessionstore"
	pgaccountrepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres/accountrepo"
	pgidempotency "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres/idempotency"
	pgprofilerepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres/profilerepo"
	postgres_testutil "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres/testutil"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/accounts"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/directory"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/profiles"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/review"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/auth/tokens"
	accountrepoport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/accountrepo"
	idempotencyport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/idempotency"
	profilerepoport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	clk     *memclock.ManualClock
}

// newTestServer serves the full API over HTTP on backend b. Auth uses the dev middleware so
// tests pick subjects and roles with headers.
func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var (
		profileRepo profilerepoport.Repository
		accountRepo accountrepoport.Repository
		idemStore   idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		profileRepo = pgprofilerepo.NewRepo(pool)
		accountRepo = pgaccountrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStoreWithOptions(pool, clk, pgidempotency.DefaultTTL)
	case backendMemory:
		profileRepo = memprofilerepo.NewRepo()
		accountRepo = memaccountrepo.NewRepo()
		idemStore = memidempotency.NewStoreWithOptions(clk, memidempotency.DefaultTTL)
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	profileSvc := profiles.NewService(profileRepo, memassetstore.NewStore("http://assets.itest"), clk, nil, nil)
	issuer := tokens.NewWithClock(tokens.Config{
		SigningKey: []byte("itest-signing-key-0123456789abcdef"),
		Issuer:     "itest",
	}, clk)
	acctSvc := accounts.NewService(accountRepo, memsessionstore.NewStore(clk), issuer, clk, accounts.Options{
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil, nil)
	opts := directory.DefaultOptions()
	opts.Delay = 0
	engine, err := directory.NewEngine(profileRepo, opts, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	api := httpapi.NewServer(httpapi.Services{
		Accounts:  acctSvc,
		Profiles:  profileSvc,
		Directory: engine,
		Review:    review.NewService(profileRepo, profileSvc, nil),
	}, idemStore, clk, nil)

	// An empty default subject means requests MUST provide X-Debug-Subject to be authenticated.
	authMW := httpapi.NewDevAuthMiddleware("")
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{AuthMiddleware: authMW})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		clk:     clk,
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

// actor is who a request is made as; the zero value is anonymous.
type actor struct {
	subject string
	roles   string
}

func (s *testServer) doJSON(t *testing.T, method string, path string, as actor, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if as.subject != "" {
		req.Header.Set("X-Debug-Subject", as.subject)
	}
	if as.roles != "" {
		req.Header.Set("X-Debug-Roles", as.roles)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
