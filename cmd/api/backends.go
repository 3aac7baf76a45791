package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	cloudinaryassetstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/cloudinary/assetstore"
	memaccountrepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/accountrepo"
	memassetstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/assetstore"
	memidempotency "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/idempotency"
	memprofilerepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/profilerepo"
	memsessionstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/sessionstore"
	mongoadapter "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/mongo"
	mongoprofilerepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/mongo/profilerepo"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres"
	pgaccountrepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres/accountrepo"
	pgidempotency "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres/idempotency"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres/migrations"
	pgprofilerepo "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres/profilerepo"
	redisadapter "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/redis"
	redissessionstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/redis/sessionstore"
	s3assetstore "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/s3/assetstore"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/config"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/accountrepo"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/assetstore"
	clockport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/idempotency"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/sessionstore"
)

// backends holds the outbound adapters selected by configuration.
type backends struct {
	profiles profilerepo.Repository
	accounts accountrepo.Repository
	sessions sessionstore.Store
	assets   assetstore.Store
	idem     idempotency.Store

	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config, clk clockport.Clock, logger *zap.Logger) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			b.close()
		}
	}()

	if err := b.openStorage(ctx, cfg, clk, logger); err != nil {
		return nil, err
	}
	if err := b.openSessions(ctx, cfg, clk); err != nil {
		return nil, err
	}
	if err := b.openAssets(ctx, cfg); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *backends) openStorage(ctx context.Context, cfg config.Config, clk clockport.Clock, logger *zap.Logger) error {
	switch cfg.StorageBackend {
	case "memory":
		logger.Warn("using in-memory storage; data is lost on restart")
		b.profiles = memprofilerepo.NewRepo()
		b.accounts = memaccountrepo.NewRepo()
		b.idem = memidempotency.NewStoreWithOptions(clk, memidempotency.DefaultTTL)
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if cfg.MigrateOnStart {
			if err := migrations.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		b.profiles = pgprofilerepo.NewRepo(pool)
		b.accounts = pgaccountrepo.NewRepo(pool)
		b.idem = pgidempotency.NewStoreWithOptions(pool, clk, pgidempotency.DefaultTTL)
	case "mongo":
		client, err := mongoadapter.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		repo, err := mongoprofilerepo.NewRepo(ctx, client.Database(cfg.MongoDatabase))
		if err != nil {
			return err
		}
		// Only profiles live in Mongo; accounts stay process-local.
		logger.Warn("mongo storage keeps accounts in memory")
		b.profiles = repo
		b.accounts = memaccountrepo.NewRepo()
		b.idem = memidempotency.NewStoreWithOptions(clk, memidempotency.DefaultTTL)
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	return nil
}

func (b *backends) openSessions(ctx context.Context, cfg config.Config, clk clockport.Clock) error {
	switch cfg.SessionBackend {
	case "memory":
		b.sessions = memsessionstore.NewStore(clk)
	case "redis":
		client, err := redisadapter.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.sessions = redissessionstore.NewStore(client, clk)
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}
	return nil
}

func (b *backends) openAssets(ctx context.Context, cfg config.Config) error {
	a := cfg.Assets
	switch a.Backend {
	case "memory":
		b.assets = memassetstore.NewStore(a.PublicBaseURL)
	case "s3":
		store, err := s3assetstore.New(ctx, s3assetstore.Config{
			Bucket:          a.S3Bucket,
			Region:          a.S3Region,
			Endpoint:        a.S3Endpoint,
			AccessKeyID:     a.S3AccessKeyID,
			SecretAccessKey: a.S3SecretAccessKey,
			PublicBaseURL:   a.PublicBaseURL,
			URLExpiry:       a.S3URLExpiry,
			UsePathStyle:    a.S3Endpoint != "",
		})
		if err != nil {
			return err
		}
		b.assets = store
	case "cloudinary":
		store, err := cloudinaryassetstore.New(cloudinaryassetstore.Config{
			CloudName: a.CloudinaryCloudName,
			APIKey:    a.CloudinaryAPIKey,
			APISecret: a.CloudinaryAPISecret,
			Folder:    a.CloudinaryFolder,
		})
		if err != nil {
			return err
		}
		b.assets = store
	default:
		return fmt.Errorf("unknown ASSET_BACKEND %q", a.Backend)
	}
	return nil
}
