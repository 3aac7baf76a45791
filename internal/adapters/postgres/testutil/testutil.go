// Package testutil provides migrated, isolated Postgres pools for adapter tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	postgres "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres/migrations"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// DSN returns DATABASE_URL, or starts a throwaway container when ITEST_CONTAINERS=1.
// The test is skipped when neither is available.
func DSN(t *testing.T) string {
	t.Helper()
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		return dsn
	}
	if os.Getenv("ITEST_CONTAINERS") != "1" {
		t.Skip("DATABASE_URL not set (set ITEST_CONTAINERS=1 to start postgres in a container)")
	}
	containerOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		// The container is reaped by the testcontainers sidecar when the test binary exits.
		c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("lawyer_directory"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			containerErr = err
			return
		}
		containerDSN, containerErr = c.ConnectionString(ctx, "sslmode=disable")
	})
	if containerErr != nil {
		t.Fatalf("start postgres container: %v", containerErr)
	}
	return containerDSN
}

// OpenMigratedPool returns a pool bound to a fresh schema with all migrations applied.
// The schema is dropped when the test finishes.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := DSN(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		t.Fatalf("open admin pool: %v", err)
	}
	if _, err := admin.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA %q`, schema)); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 4, SearchPath: schema})
	if err != nil {
		admin.Close()
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), fmt.Sprintf(`DROP SCHEMA %q CASCADE`, schema))
		admin.Close()
	})

	if err := migrations.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}
