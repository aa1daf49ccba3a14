package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"filesmanager/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func mustCreateUser(t *testing.T, st *Store, email string) *models.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), email, "hash-"+email, time.Now())
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func TestOpenWithSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.db")
	st, err := OpenWith(context.Background(), Options{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("open with: %v", err)
	}
	defer st.Close()

	if st.Driver() != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", st.Driver())
	}
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenWithRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenWith(context.Background(), Options{Driver: "mongo"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestUserLifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	count, err := st.CountUsers(ctx)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	created, err := st.CreateUser(ctx, " bob@dylan.com ", "hash-1", now)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !models.ValidID(created.ID) {
		t.Fatalf("expected generated id, got %q", created.ID)
	}
	if created.Email != "bob@dylan.com" {
		t.Fatalf("expected trimmed email, got %q", created.Email)
	}

	_, err = st.CreateUser(ctx, "bob@dylan.com", "hash-2", now)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	byEmail, err := st.GetUserByEmail(ctx, "bob@dylan.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID || byEmail.PasswordHash != "hash-1" {
		t.Fatalf("unexpected user by email: %#v", byEmail)
	}
	if !byEmail.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %v, got %v", now, byEmail.CreatedAt)
	}

	byID, err := st.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID == nil || byID.Email != "bob@dylan.com" {
		t.Fatalf("unexpected user by id: %#v", byID)
	}

	missing, err := st.GetUserByEmail(ctx, "BOB@dylan.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected exact email matching")
	}

	count, err = st.CountUsers(ctx)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}
}

func TestCreateUserValidation(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if _, err := st.CreateUser(ctx, "", "hash", time.Now()); err == nil {
		t.Fatal("expected error for empty email")
	}
	if _, err := st.CreateUser(ctx, "a@b.c", " ", time.Now()); err == nil {
		t.Fatal("expected error for empty hash")
	}
}
