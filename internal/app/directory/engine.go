// Package directory loads approved lawyer profiles and filters them for the public directory.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/apperr"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/profiles"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/logging"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/metrics"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

// ExhaustedPolicy decides what LoadApproved does once every attempt has failed.
type ExhaustedPolicy string

const (
	// OnExhaustedFallback serves the placeholder dataset and reports no error.
	OnExhaustedFallback ExhaustedPolicy = "fallback"
	// OnExhaustedFail surfaces a network error to the caller.
	OnExhaustedFail ExhaustedPolicy = "fail"
)

func ParseExhaustedPolicy(s string) (ExhaustedPolicy, error) {
	switch ExhaustedPolicy(s) {
	case OnExhaustedFallback, OnExhaustedFail:
		return ExhaustedPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown exhausted-retries policy %q", s)
	}
}

// Source tells callers where a directory listing came from.
type Source string

const (
	SourceLive        Source = "live"
	SourcePlaceholder Source = "placeholder"
)

type Options struct {
	// Attempts is the total number of repository calls, first try included.
	Attempts int
	// Delay is the fixed pause between attempts.
	Delay       time.Duration
	OnExhausted ExhaustedPolicy
	// FallbackOnEmpty serves placeholders when the live directory has no approved profiles.
	FallbackOnEmpty bool
}

func DefaultOptions() Options {
	return Options{
		Attempts:    3,
		Delay:       time.Second,
		OnExhausted: OnExhaustedFallback,
	}
}

type Result struct {
	Profiles []domain.Profile
	Source   Source
	// Attempts is how many repository calls were made.
	Attempts int
}

type Engine struct {
	repo profilerepo.Repository
	opts Options
	log  *zap.Logger
	m    *metrics.Metrics

	placeholders []domain.Profile
}

func NewEngine(repo profilerepo.Repository, opts Options, log *zap.Logger, m *metrics.Metrics) (*Engine, error) {
	if opts.Attempts < 1 {
		return nil, fmt.Errorf("directory: attempts must be at least 1 (got %d)", opts.Attempts)
	}
	if opts.Delay < 0 {
		return nil, fmt.Errorf("directory: delay must not be negative")
	}
	if opts.OnExhausted == "" {
		opts.OnExhausted = OnExhaustedFallback
	}
	if _, err := ParseExhaustedPolicy(string(opts.OnExhausted)); err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	ph, err := loadPlaceholders(placeholderYAML)
	if err != nil {
		return nil, err
	}
	return &Engine{
		repo:         repo,
		opts:         opts,
		log:          logging.OrNop(log).Named("directory"),
		m:            m,
		placeholders: ph,
	}, nil
}

// LoadApproved returns approved profiles ordered by name. Repository failures are retried
// with a fixed delay; after the last attempt the exhaustion policy applies. Cancellation of
// ctx stops retrying and is always returned as an error.
func (e *Engine) LoadApproved(ctx context.Context) (Result, error) {
	var (
		attempts int
		recs     []profilerepo.Profile
	)
	err := retry.Do(ctx, e.backoff(), func(ctx context.Context) error {
		attempts++
		out, err := e.repo.ListApproved(ctx)
		if err != nil {
			e.log.Warn("directory load attempt failed",
				zap.Int("attempt", attempts),
				zap.Int("max_attempts", e.opts.Attempts),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		recs = out
		return nil
	})

	switch {
	case err == nil:
	case ctx.Err() != nil:
		return Result{}, ctx.Err()
	case e.opts.OnExhausted == OnExhaustedFail:
		e.m.ObserveDirectoryLoad("failed", attempts)
		return Result{}, apperr.Network("DIRECTORY_UNAVAILABLE", "The lawyer directory is temporarily unavailable.", err)
	default:
		e.log.Warn("directory unavailable, serving placeholder profiles", zap.Int("attempts", attempts), zap.Error(err))
		return e.placeholderResult(attempts), nil
	}

	if len(recs) == 0 && e.opts.FallbackOnEmpty {
		return e.placeholderResult(attempts), nil
	}

	out := make([]domain.Profile, 0, len(recs))
	for _, r := range recs {
		if !r.Approved {
			// A misbehaving repository must never leak pending profiles.
			continue
		}
		out = append(out, profiles.ToDomain(r))
	}
	e.m.ObserveDirectoryLoad(string(SourceLive), attempts)
	return Result{Profiles: out, Source: SourceLive, Attempts: attempts}, nil
}

// Placeholders returns a copy of the fallback dataset.
func (e *Engine) Placeholders() []domain.Profile {
	out := make([]domain.Profile, len(e.placeholders))
	for i, p := range e.placeholders {
		p.Specializations = append([]domain.Specialization(nil), p.Specializations...)
		out[i] = p
	}
	return out
}

func (e *Engine) placeholderResult(attempts int) Result {
	e.m.ObserveDirectoryLoad(string(SourcePlaceholder), attempts)
	return Result{Profiles: e.Placeholders(), Source: SourcePlaceholder, Attempts: attempts}
}

func (e *Engine) backoff() retry.Backoff {
	d := e.opts.Delay
	if d <= 0 {
		// NewConstant rejects non-positive durations.
		d = time.Nanosecond
	}
	return retry.WithMaxRetries(uint64(e.opts.Attempts-1), retry.NewConstant(d))
}

// View is one rendered directory page: filtered profiles plus facets of the full listing.
type View struct {
	Profiles        []domain.Profile
	Cities          []string
	Specializations []domain.Specialization
	Source          Source
}

// Query loads the directory and applies c. Facets are computed before filtering.
func (e *Engine) Query(ctx context.Context, c Criteria) (View, error) {
	res, err := e.LoadApproved(ctx)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return View{}, err
		}
		return View{}, fmt.Errorf("load directory: %w", err)
	}
	return View{
		Profiles:        Filter(res.Profiles, c),
		Cities:          Cities(res.Profiles),
		Specializations: domain.Specializations(),
		Source:          res.Source,
	}, nil
}
