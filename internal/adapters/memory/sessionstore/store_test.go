package sessionstore

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/memory/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/sessionstore"
)

func TestStore_ExpiredSessionIsGone(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0).UTC()
	clk := memclock.NewManualClock(now)
	s := NewStore(clk)

	sess := domain.Session{ID: "s-1", Subject: "sub-1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := s.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Get(context.Background(), "s-1"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	clk.Advance(time.Hour)
	if _, err := s.Get(context.Background(), "s-1"); !errors.Is(err, sessionstore.ErrNotFound) {
		t.Fatalf("Get after expiry err=%v, want ErrNotFound", err)
	}
}

func TestStore_SavePrunesExpiredSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Unix(1000, 0).UTC()
	clk := memclock.NewManualClock(now)
	s := NewStore(clk)

	for _, id := range []domain.SessionID{"s-1", "s-2"} {
		sess := domain.Session{ID: id, Subject: "sub-1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
		if err := s.Save(ctx, sess); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	long := domain.Session{ID: "s-long", Subject: "sub-2", IssuedAt: now, ExpiresAt: now.Add(3 * time.Hour)}
	if err := s.Save(ctx, long); err != nil {
		t.Fatalf("Save long: %v", err)
	}

	// Never read back; only the next write can reclaim them.
	clk.Advance(2 * time.Hour)
	fresh := domain.Session{ID: "s-3", Subject: "sub-3", IssuedAt: clk.Now(), ExpiresAt: clk.Now().Add(time.Hour)}
	if err := s.Save(ctx, fresh); err != nil {
		t.Fatalf("Save fresh: %v", err)
	}

	s.mu.Lock()
	held := len(s.m)
	_, stale := s.m["s-1"]
	s.mu.Unlock()
	if held != 2 || stale {
		t.Fatalf("held=%d stale=%v, want 2 live records", held, stale)
	}
	if _, err := s.Get(ctx, "s-long"); err != nil {
		t.Fatalf("Get unexpired: %v", err)
	}
}
