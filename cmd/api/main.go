package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/httpapi"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/accounts"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/directory"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/profiles"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/review"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/auth/tokens"
	platformclock "github.com/iforum-lawyers/lawyer-directory-api/internal/platform/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/config"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/logging"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/metrics"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("api: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	clk := platformclock.NewSystemClock()

	be, err := openBackends(ctx, cfg, clk, logger)
	if err != nil {
		return err
	}
	defer be.close()

	profileSvc := profiles.NewService(be.profiles, be.assets, clk, logger, m)
	profileSvc.MaxPhotoBytes = cfg.Assets.MaxPhotoBytes

	issuer := tokens.New(tokens.Config{
		SigningKey: []byte(cfg.Session.SigningKey),
		Issuer:     cfg.Session.Issuer,
	})
	acctSvc := accounts.NewService(be.accounts, be.sessions, issuer, clk, accounts.Options{
		SessionTTL: cfg.Session.TTL,
	}, logger, m)
	defer acctSvc.Close()
	if err := seedAdmins(ctx, acctSvc, cfg.Session, logger); err != nil {
		return err
	}
	unsubscribe := acctSvc.OnSessionChange(func(ev accounts.SessionEvent) {
		logger.Debug("session changed",
			zap.String("event", string(ev.Kind)),
			zap.String("subject", string(ev.Session.Subject)),
		)
	})
	defer unsubscribe()

	policy, err := directory.ParseExhaustedPolicy(cfg.Directory.OnExhausted)
	if err != nil {
		return err
	}
	engine, err := directory.NewEngine(be.profiles, directory.Options{
		Attempts:        cfg.Directory.RetryAttempts,
		Delay:           cfg.Directory.RetryDelay,
		OnExhausted:     policy,
		FallbackOnEmpty: cfg.Directory.FallbackOnEmpty,
	}, logger, m)
	if err != nil {
		return err
	}

	api := httpapi.NewServer(httpapi.Services{
		Accounts:  acctSvc,
		Profiles:  profileSvc,
		Directory: engine,
		Review:    review.NewService(be.profiles, profileSvc, logger),
	}, be.idem, clk, logger)

	// Auth configuration:
	// - Production: bearer session tokens checked against the session store
	// - Local dev: set AUTH_MODE=dev to use X-Debug-Subject / X-Debug-Roles
	var authMW func(http.Handler) http.Handler
	switch cfg.AuthMode {
	case "dev":
		if cfg.IsProduction() {
			return errors.New("AUTH_MODE=dev is not allowed when ENV=production")
		}
		logger.Warn("dev auth enabled; X-Debug-Subject is trusted", zap.String("default_subject", cfg.DevSubject))
		authMW = httpapi.NewDevAuthMiddleware(cfg.DevSubject)
	default:
		authMW = httpapi.NewSessionAuthMiddleware(acctSvc)
	}

	proxies, err := cfg.TrustedProxyList()
	if err != nil {
		return err
	}
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AuthMiddleware:         authMW,
		Logger:                 logger,
		Metrics:                m,
		AuthRateLimitPerMinute: cfg.AuthRateLimitPerMinute,
		TrustedProxies:         proxies,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.StorageBackend),
			zap.String("sessions", cfg.SessionBackend),
			zap.String("assets", cfg.Assets.Backend),
			zap.String("auth", cfg.AuthMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("grace", cfg.ShutdownGrace))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// seedAdmins creates the configured administrator accounts. A configured address that
// is already held by a self-registered account stops startup.
func seedAdmins(ctx context.Context, svc *accounts.Service, cfg config.SessionConfig, logger *zap.Logger) error {
	emails := cfg.AdminEmailList()
	if len(emails) == 0 {
		return nil
	}
	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD not set; admin accounts not seeded", zap.Strings("emails", emails))
		return nil
	}
	for _, email := range emails {
		if _, err := svc.SeedAdmin(ctx, email, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seed admin %s: %w", email, err)
		}
	}
	return nil
}
