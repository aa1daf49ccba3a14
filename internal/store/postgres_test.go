package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
)

func newPostgresMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{db: db, dialect: dialectPostgres}, mock
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: dialectPostgres}
	lite := &Store{dialect: dialectSQLite}
	query := "SELECT a FROM t WHERE b = ? AND c IN (?, ?)"

	if got := pg.rebind(query); got != "SELECT a FROM t WHERE b = $1 AND c IN ($2, $3)" {
		t.Fatalf("unexpected postgres query: %s", got)
	}
	if got := lite.rebind(query); got != query {
		t.Fatalf("sqlite query must be unchanged, got %s", got)
	}
}

func TestPostgresGetSessionUsesNumberedPlaceholders(t *testing.T) {
	st, mock := newPostgresMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM sessions\s+WHERE key_hash = \$1\s+AND expires_at > \$2`).
		WithArgs("key", dbFormatTime(now)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-1"))

	userID, err := st.GetSession(context.Background(), "key", now)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresCreateUserMapsUniqueViolation(t *testing.T) {
	st, mock := newPostgresMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := st.CreateUser(context.Background(), "a@b.c", "hash", time.Now())
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPostgresClaimJobSkipsLockedRows(t *testing.T) {
	st, mock := newPostgresMock(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stamp := dbFormatTime(now)

	rows := sqlmock.NewRows([]string{"id", "queue", "payload", "status", "attempts", "last_error", "available_at", "created_at", "updated_at"}).
		AddRow("aaaaaaaaaaaaaaaaaaaaaaaa", testQueue, `{"fileId":"x"}`, "running", 1, "", dbFormatTime(now.Add(time.Minute)), stamp, stamp)
	mock.ExpectQuery(`UPDATE jobs\s+SET status = \$1.*FOR UPDATE SKIP LOCKED.*RETURNING`).WillReturnRows(rows)

	job, err := st.ClaimJob(context.Background(), testQueue, now, time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if job == nil || job.Attempts != 1 || string(job.Payload) != `{"fileId":"x"}` {
		t.Fatalf("unexpected job: %#v", job)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresClaimJobEmpty(t *testing.T) {
	st, mock := newPostgresMock(t)

	mock.ExpectQuery(`UPDATE jobs`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	job, err := st.ClaimJob(context.Background(), testQueue, time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %#v", job)
	}
}

func TestRunPostgresMigrationsUsesEmbeddedDir(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	if err := runPostgresMigrations(context.Background(), db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if gotDir != postgresMigrationsDir {
		t.Fatalf("expected dir %q, got %q", postgresMigrationsDir, gotDir)
	}

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	if err := runPostgresMigrations(context.Background(), db); err == nil {
		t.Fatal("expected migration error")
	}
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
