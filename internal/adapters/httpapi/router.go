package httpapi

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/logging"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/metrics"
)

type RouterOptions struct {
	// AuthMiddleware attaches a session to requests that carry credentials.
	// Nil leaves every request anonymous.
	AuthMiddleware func(http.Handler) http.Handler

	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// AuthRateLimitPerMinute caps sign-up and sign-in per client IP. Zero disables it.
	AuthRateLimitPerMinute int

	// TrustedProxies lists the peers whose X-Forwarded-For / X-Real-IP headers are
	// believed. Requests from anywhere else are keyed on their socket address.
	TrustedProxies []netip.Prefix
}

// NewRouter constructs the API HTTP router with no auth and no rate limiting.
func NewRouter(api *Server) http.Handler {
	return NewRouterWithOptions(api, RouterOptions{})
}

func NewRouterWithOptions(api *Server, opts RouterOptions) http.Handler {
	log := logging.OrNop(opts.Logger)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(trustedRealIP(opts.TrustedProxies))
	r.Use(requestLogger(log, opts.Metrics))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	r.Group(func(r chi.Router) {
		if opts.AuthMiddleware != nil {
			r.Use(opts.AuthMiddleware)
		}

		r.Route("/auth", func(r chi.Router) {
			limited := r.With(rateLimit(opts.AuthRateLimitPerMinute, log))
			limited.Post("/signup", api.SignUp)
			limited.Post("/signin", api.SignIn)
			r.With(RequireSession).Post("/signout", api.SignOut)
			r.Get("/session", api.GetSession)
		})

		r.Get("/directory", api.GetDirectory)
		r.Get("/specializations", api.ListSpecializations)

		r.Route("/profiles", func(r chi.Router) {
			r.Use(RequireSession)
			r.Post("/", api.CreateProfile)
			r.Get("/me", api.GetMyProfile)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireSession)
			r.Get("/profiles", api.ListReviewProfiles)
			r.Post("/profiles/{id}/approve", api.ApproveProfile)
			r.Post("/profiles/{id}/reject", api.RejectProfile)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}
