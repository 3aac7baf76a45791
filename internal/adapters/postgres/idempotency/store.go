package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformclock "github.com/iforum-lawyers/lawyer-directory-api/internal/platform/clock"
	clockport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/idempotency"
)

// DefaultTTL is how long a stored response stays replayable.
const DefaultTTL = 24 * time.Hour

// Store is a Postgres implementation of idempotency.Store.
// Rows older than the TTL are ignored on read and deleted on write.
type Store struct {
	pool *pgxpool.Pool
	clk  clockport.Clock
	ttl  time.Duration
}

func NewStore(pool *pgxpool.Pool) *Store {
	return NewStoreWithOptions(pool, platformclock.NewSystemClock(), DefaultTTL)
}

func NewStoreWithOptions(pool *pgxpool.Pool, clk clockport.Clock, ttl time.Duration) *Store {
	return &Store{pool: pool, clk: clk, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.pool == nil {
		return idempotency.Record{}, false, errors.New("nil postgres pool")
	}
	row := s.pool.QueryRow(ctx, `
		SELECT status_code, content_type, body, created_at
		FROM idempotency_keys
		WHERE idempotency_key = $1
		  AND subject = $2
		  AND method = $3
		  AND route = $4
		  AND body_hash = $5
		  AND created_at > $6
	`,
		string(fp.Key),
		string(fp.Subject),
		fp.Method,
		fp.Route,
		fp.BodyHash,
		s.cutoff(),
	)
	var rec idempotency.Record
	if err := row.Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return idempotency.Record{}, false, nil
		}
		return idempotency.Record{}, false, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clk.Now()
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at <= $1`, s.cutoff()); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO idempotency_keys (
				idempotency_key,
				subject,
				method,
				route,
				body_hash,
				status_code,
				content_type,
				body,
				created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (idempotency_key, subject, method, route, body_hash)
			DO UPDATE SET
				status_code = EXCLUDED.status_code,
				content_type = EXCLUDED.content_type,
				body = EXCLUDED.body,
				created_at = EXCLUDED.created_at
		`,
			string(fp.Key),
			string(fp.Subject),
			fp.Method,
			fp.Route,
			fp.BodyHash,
			rec.StatusCode,
			rec.ContentType,
			rec.Body,
			createdAt.UTC(),
		)
		return err
	})
}

func (s *Store) cutoff() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.clk.Now().Add(-s.ttl).UTC()
}
