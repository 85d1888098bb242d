package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalize_TokenFieldOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{
			name: "canonical token field",
			raw:  map[string]any{"token": "tok-1"},
			want: "tok-1",
		},
		{
			name: "accessToken only",
			raw:  map[string]any{"accessToken": "abc"},
			want: "abc",
		},
		{
			name: "token wins over accessToken",
			raw:  map[string]any{"accessToken": "abc", "token": "tok-1"},
			want: "tok-1",
		},
		{
			name: "snake case access_token",
			raw:  map[string]any{"access_token": "snake"},
			want: "snake",
		},
		{
			name: "id_token last resort",
			raw:  map[string]any{"id_token": "idt"},
			want: "idt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Normalize(tt.raw)
			if err != nil {
				t.Fatalf("Normalize() failed: %v", err)
			}
			if s.Token != tt.want {
				t.Errorf("Token = %q, want %q", s.Token, tt.want)
			}
		})
	}
}

func TestNormalize_NoToken(t *testing.T) {
	if _, err := Normalize(map[string]any{"user": map[string]any{"email": "a@b.com"}}); err == nil {
		t.Error("Normalize() expected error for response without token, got nil")
	}
	if _, err := Normalize(nil); err == nil {
		t.Error("Normalize() expected error for nil response, got nil")
	}
}

func TestNormalize_UserFields(t *testing.T) {
	raw := map[string]any{
		"token": "tok",
		"user": map[string]any{
			"_id":   "u-9",
			"name":  "Asha Mehta",
			"email": "asha@example.com",
			"role":  "admin",
		},
	}

	s, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	if s.User.ID != "u-9" || s.User.Name != "Asha Mehta" || s.User.Email != "asha@example.com" || s.User.Role != "admin" {
		t.Errorf("unexpected user: %+v", s.User)
	}
}

func TestNormalize_TopLevelUserFields(t *testing.T) {
	raw := map[string]any{
		"token": "tok",
		"name":  "Ravi",
		"email": "ravi@example.com",
	}

	s, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	if s.User.Email != "ravi@example.com" {
		t.Errorf("User.Email = %q, want top-level email", s.User.Email)
	}
}

// unsignedJWT builds a syntactically valid JWT with the given exp claim.
func unsignedJWT(t *testing.T, exp int64) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims, err := json.Marshal(map[string]any{"exp": exp, "email": "a@b.com"})
	if err != nil {
		t.Fatalf("failed to marshal claims: %v", err)
	}
	body := base64.RawURLEncoding.EncodeToString(claims)
	return fmt.Sprintf("%s.%s.sig", header, body)
}

func TestSession_ExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	s := &Session{Token: unsignedJWT(t, exp)}

	got := s.ExpiresAt()
	if got.Unix() != exp {
		t.Errorf("ExpiresAt() = %v, want unix %d", got, exp)
	}
	if s.Expired() {
		t.Error("Expired() = true for token expiring in an hour")
	}
}

func TestSession_Expired(t *testing.T) {
	s := &Session{Token: unsignedJWT(t, time.Now().Add(-time.Minute).Unix())}
	if !s.Expired() {
		t.Error("Expired() = false for token that expired a minute ago")
	}
}

func TestSession_OpaqueTokenNeverExpires(t *testing.T) {
	s := &Session{Token: "opaque-api-key"}
	if !s.ExpiresAt().IsZero() {
		t.Errorf("ExpiresAt() = %v for opaque token, want zero", s.ExpiresAt())
	}
	if s.Expired() {
		t.Error("Expired() = true for opaque token")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	if _, err := store.Current(); err != ErrNoSession {
		t.Fatalf("Current() on empty store = %v, want ErrNoSession", err)
	}

	want := &Session{
		Token:   "tok-42",
		User:    User{Email: "a@b.com", Role: "user"},
		SavedAt: time.Now().Truncate(time.Second),
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Current()
	if err != nil {
		t.Fatalf("Current() failed: %v", err)
	}
	if got.Token != want.Token || got.User.Email != want.User.Email {
		t.Errorf("Current() = %+v, want %+v", got, want)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, err := store.Current(); err != ErrNoSession {
		t.Errorf("Current() after Clear() = %v, want ErrNoSession", err)
	}

	// Clearing an already-empty store is not an error.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear() failed: %v", err)
	}
}
