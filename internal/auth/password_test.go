package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("password-123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "password-123" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !VerifyPassword(hash, "password-123") {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
	if VerifyPassword("", "password-123") {
		t.Fatal("expected empty hash to fail")
	}
}

func TestHashPasswordRejectsInvalid(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected empty password error")
	}
}

func TestHashPasswordAcceptsLongPasswords(t *testing.T) {
	long := strings.Repeat("x", 200)
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("hash long password: %v", err)
	}
	if !VerifyPassword(hash, long) {
		t.Fatal("expected long password to verify")
	}
	// Passwords sharing the first 72 bytes must stay distinct.
	if VerifyPassword(hash, strings.Repeat("x", 72)) || VerifyPassword(hash, long+"y") {
		t.Fatal("expected different long passwords to fail")
	}
}

func TestParseBasicCredentials(t *testing.T) {
	encode := func(raw string) string {
		return base64.StdEncoding.EncodeToString([]byte(raw))
	}

	tests := []struct {
		name         string
		header       string
		wantEmail    string
		wantPassword string
		wantErr      bool
	}{
		{name: "valid", header: "Basic " + encode("bob@dylan.com:toto1234!"), wantEmail: "bob@dylan.com", wantPassword: "toto1234!"},
		{name: "lowercase scheme", header: "basic " + encode("a@b.c:pw"), wantEmail: "a@b.c", wantPassword: "pw"},
		{name: "colon in password", header: "Basic " + encode("a@b.c:p:w:d"), wantEmail: "a@b.c", wantPassword: "p:w:d"},
		{name: "empty password", header: "Basic " + encode("a@b.c:"), wantEmail: "a@b.c", wantPassword: ""},
		{name: "missing", header: "", wantErr: true},
		{name: "bearer scheme", header: "Bearer abc", wantErr: true},
		{name: "bad base64", header: "Basic !!!", wantErr: true},
		{name: "no separator", header: "Basic " + encode("a@b.c"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, password, err := ParseBasicCredentials(tt.header)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedCredentials) {
					t.Fatalf("expected ErrMalformedCredentials, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if email != tt.wantEmail || password != tt.wantPassword {
				t.Fatalf("got (%q, %q), want (%q, %q)", email, password, tt.wantEmail, tt.wantPassword)
			}
		})
	}
}
