package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	data := TokenData{UserID: "user-1", Email: "ann@example.com", Name: "Ann"}
	if err := store.SaveRefreshSession(ctx, "token-hash", data, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}

	got, err := store.LookupRefreshSession(ctx, "token-hash")
	if err != nil {
		t.Fatalf("LookupRefreshSession: %v", err)
	}
	if got.UserID != "user-1" || got.Email != "ann@example.com" || got.Name != "Ann" {
		t.Errorf("unexpected token data: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestLookupUnknownToken(t *testing.T) {
	store := setupTestRedis(t)

	if _, err := store.LookupRefreshSession(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	data := TokenData{UserID: "user-1", Email: "ann@example.com"}
	if err := store.SaveRefreshSession(ctx, "token-hash", data, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}
	if err := store.RevokeRefreshSession(ctx, "token-hash"); err != nil {
		t.Fatalf("RevokeRefreshSession: %v", err)
	}
	if _, err := store.LookupRefreshSession(ctx, "token-hash"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after revoke, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	store := setupTestRedis(t)
	if err := store.RevokeRefreshSession(context.Background(), "never-existed"); err != nil {
		t.Fatalf("revoking an unknown token must not error: %v", err)
	}
}
