package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesKind(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := fmt.Errorf("create: %w", Persistence("could not save profile", cause))

	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected errors.Is(err, ErrPersistence)")
	}
	if errors.Is(err, ErrStorage) {
		t.Fatalf("persistence error must not match storage")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
}

func TestError_IsMatchesCodeWhenSentinelHasOne(t *testing.T) {
	t.Parallel()

	err := Conflict("PROFILE_ALREADY_EXISTS", "exists")
	if !errors.Is(err, &Error{Kind: KindConflict, Code: "PROFILE_ALREADY_EXISTS"}) {
		t.Fatalf("expected code match")
	}
	if errors.Is(err, &Error{Kind: KindConflict, Code: "EMAIL_ALREADY_REGISTERED"}) {
		t.Fatalf("unexpected code match")
	}
}

func TestAs(t *testing.T) {
	t.Parallel()

	ae, ok := As(fmt.Errorf("wrapped: %w", Forbidden("nope")))
	if !ok || ae.Status != 403 || ae.Code != "FORBIDDEN" {
		t.Fatalf("As=%+v ok=%v", ae, ok)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Fatalf("plain error must not convert")
	}
}
