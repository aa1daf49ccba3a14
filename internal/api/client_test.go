package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPTimeoutFromEnv(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "")
		if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
			t.Fatalf("expected default timeout %v, got %v", defaultHTTPTimeout, got)
		}
	})

	t.Run("duration format", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "45s")
		if got := httpTimeoutFromEnv(); got != 45*time.Second {
			t.Fatalf("expected 45s timeout, got %v", got)
		}
	})

	t.Run("integer seconds", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "25")
		if got := httpTimeoutFromEnv(); got != 25*time.Second {
			t.Fatalf("expected 25s timeout, got %v", got)
		}
	})

	t.Run("invalid falls back", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "invalid")
		if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
			t.Fatalf("expected default timeout %v, got %v", defaultHTTPTimeout, got)
		}
	})
}

func TestClientConnectSendsBasicAndStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/connect" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		email, password, ok := r.BasicAuth()
		if !ok || email != "bob@dylan.com" || password != "to:to" {
			t.Errorf("unexpected basic credentials %q %q %v", email, password, ok)
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{Token: "tok"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/")
	token, err := client.Connect(context.Background(), "bob@dylan.com", "to:to")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if token != "tok" || client.Token() != "tok" {
		t.Fatalf("expected stored token, got %q / %q", token, client.Token())
	}
}

func TestClientSendsTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(TokenHeader); got != "abc" {
			t.Errorf("expected token header abc, got %q", got)
		}
		if r.URL.Path != "/files" || r.URL.Query().Get("parentId") != "p1" || r.URL.Query().Get("page") != "2" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`[{"id":"a","userId":"u","name":"n","type":"file","isPublic":false,"parentId":0}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	client.SetToken(" abc ")
	files, err := client.ListFiles(context.Background(), "p1", 2)
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(files) != 1 || files[0].ID != "a" || !files[0].ParentID.IsRoot() {
		t.Fatalf("unexpected files: %#v", files)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Not found", Code: "not_found", ErrorCode: 2001})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetFile(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.ErrorCode != 2001 || apiErr.Message != "Not found" {
		t.Fatalf("unexpected api error: %#v", apiErr)
	}
}

func TestClientDownloadReturnsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("size") != "100" {
			t.Errorf("expected size=100, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	contentType, err := NewClient(srv.URL).Download(context.Background(), "id", 100, &buf)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if contentType != "image/png" || buf.String() != "png-bytes" {
		t.Fatalf("unexpected download result %q %q", contentType, buf.String())
	}
}

func TestClientDisconnectClearsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	client.SetToken("abc")
	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if client.Token() != "" {
		t.Fatalf("expected token cleared, got %q", client.Token())
	}
}
