package store

import (
	"context"
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour

	if err := st.SetSession(ctx, "key-1", "user-1", now.Add(ttl), now); err != nil {
		t.Fatalf("set session: %v", err)
	}

	userID, err := st.GetSession(ctx, "key-1", now.Add(ttl-time.Second))
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}

	userID, err = st.GetSession(ctx, "key-1", now.Add(ttl))
	if err != nil {
		t.Fatalf("get at expiry: %v", err)
	}
	if userID != "" {
		t.Fatalf("expected session to be expired at ttl, got %q", userID)
	}

	deleted, err := st.DeleteSession(ctx, "key-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report existing row")
	}

	deleted, err = st.DeleteSession(ctx, "key-1")
	if err != nil {
		t.Fatalf("delete again: %v", err)
	}
	if deleted {
		t.Fatal("expected second delete to report missing row")
	}

	userID, err = st.GetSession(ctx, "key-1", now)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if userID != "" {
		t.Fatalf("expected no session after delete, got %q", userID)
	}
}

func TestSetSessionReplacesExisting(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.SetSession(ctx, "key", "user-1", now.Add(time.Minute), now); err != nil {
		t.Fatalf("set first: %v", err)
	}
	if err := st.SetSession(ctx, "key", "user-2", now.Add(time.Hour), now); err != nil {
		t.Fatalf("set second: %v", err)
	}

	userID, err := st.GetSession(ctx, "key", now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if userID != "user-2" {
		t.Fatalf("expected replaced mapping, got %q", userID)
	}
}

func TestSetSessionValidation(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := st.SetSession(ctx, "", "user", now, now); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := st.SetSession(ctx, "key", " ", now, now); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestPurgeExpiredSessions(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.SetSession(ctx, "old", "user", now.Add(-time.Minute), now.Add(-time.Hour)); err != nil {
		t.Fatalf("set old: %v", err)
	}
	if err := st.SetSession(ctx, "fresh", "user", now.Add(time.Hour), now); err != nil {
		t.Fatalf("set fresh: %v", err)
	}

	purged, err := st.PurgeExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged session, got %d", purged)
	}

	userID, err := st.GetSession(ctx, "fresh", now)
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if userID != "user" {
		t.Fatalf("expected fresh session to survive, got %q", userID)
	}
}
