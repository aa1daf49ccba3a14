package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"filesmanager/internal/api"
	"filesmanager/internal/config"
	"filesmanager/internal/models"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(tokenEnvKey, "")
	t.Setenv(logLevelEnvKey, "")

	cmd := newRootCmd(&config.Config{Port: 5000, LogLevel: "error"})
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConnectPrintsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if r.URL.Path != "/connect" || !ok || email != "bob@example.com" || password != "s3cret:pw" {
			t.Errorf("unexpected request %s basic=%v %q %q", r.URL.Path, ok, email, password)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(api.TokenResponse{Token: "tok-123"})
	}))
	defer srv.Close()

	out, err := runCLI(t, "s3cret:pw\n", "--api-url", srv.URL, "connect", "bob@example.com", "--password-stdin")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if strings.TrimSpace(out) != "tok-123" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConnectRequiresPasswordStdin(t *testing.T) {
	_, err := runCLI(t, "", "--api-url", "http://127.0.0.1:1", "connect", "bob@example.com")
	if err == nil || !strings.Contains(err.Error(), "--password-stdin") {
		t.Fatalf("expected password-stdin error, got %v", err)
	}
}

func TestListWritesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(api.TokenHeader) != "tok-123" {
			t.Errorf("missing token header")
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page=2, got %q", got)
		}
		_ = json.NewEncoder(w).Encode([]api.File{{ID: "f1", UserID: "u1", Name: "a.txt", Type: "file"}})
	}))
	defer srv.Close()

	out, err := runCLI(t, "", "--api-url", srv.URL, "--token", "tok-123", "-o", "json", "ls", "--page", "2")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	var files []api.File
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(files) != 1 || files[0].ID != "f1" || files[0].ParentID != models.RootParentID {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestCommandsRequireToken(t *testing.T) {
	for _, args := range [][]string{{"me"}, {"ls"}, {"show", "f1"}, {"publish", "f1"}, {"disconnect"}} {
		_, err := runCLI(t, "", append([]string{"--api-url", "http://127.0.0.1:1"}, args...)...)
		if err == nil || !strings.Contains(err.Error(), "session token is required") {
			t.Fatalf("%v: expected token error, got %v", args, err)
		}
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := runCLI(t, "", "-o", "xml", "status")
	if err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestDetectFileType(t *testing.T) {
	tests := map[string]models.FileType{
		"photo.PNG":  models.TypeImage,
		"a/b.jpeg":   models.TypeImage,
		"notes.txt":  models.TypeFile,
		"no-ext":     models.TypeFile,
		"archive.gz": models.TypeFile,
	}
	for path, want := range tests {
		if got := detectFileType(path); got != want {
			t.Fatalf("detectFileType(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestReadPassword(t *testing.T) {
	got, err := readPassword(strings.NewReader("pw with spaces\r\nignored\n"))
	if err != nil || got != "pw with spaces" {
		t.Fatalf("readPassword = %q, %v", got, err)
	}
	if _, err := readPassword(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty stdin")
	}
}
