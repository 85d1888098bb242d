// Package session holds the authenticated user state shared by every API
// call: one bearer token plus the identity fields returned at login.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned by stores when no session has been saved.
var ErrNoSession = errors.New("no active session")

// tokenFields are the field names backends have been observed to use for
// the bearer token, in lookup order. Normalization happens exactly once at
// login; after that only the canonical Token field exists.
var tokenFields = []string{"token", "accessToken", "jwt", "access_token", "id_token"}

// User is the identity portion of a session.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is the persisted credential blob. It is created at login,
// destroyed at logout, and read-only in between.
type Session struct {
	Token   string    `json:"token"`
	User    User      `json:"user"`
	SavedAt time.Time `json:"savedAt"`
}

// Normalize builds a Session from a raw login/signup response, picking the
// first recognized token field and flattening the user object.
func Normalize(raw map[string]any) (*Session, error) {
	if raw == nil {
		return nil, fmt.Errorf("empty auth response")
	}

	var token string
	for _, field := range tokenFields {
		if v, ok := raw[field].(string); ok && v != "" {
			token = v
			break
		}
	}
	if token == "" {
		return nil, fmt.Errorf("auth response contains no token field")
	}

	s := &Session{
		Token:   token,
		SavedAt: time.Now(),
	}

	userObj, _ := raw["user"].(map[string]any)
	if userObj == nil {
		// Some endpoints return the profile fields at the top level.
		userObj = raw
	}
	s.User = User{
		ID:    stringField(userObj, "id", "_id", "userId"),
		Name:  stringField(userObj, "name", "fullName"),
		Email: stringField(userObj, "email"),
		Role:  stringField(userObj, "role"),
	}

	return s, nil
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

// ExpiresAt reads the exp claim from the token without verifying the
// signature; verification is the backend's job. Returns the zero time when
// the token is not a JWT or carries no expiry.
func (s *Session) ExpiresAt() time.Time {
	if s == nil || s.Token == "" {
		return time.Time{}
	}
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(s.Token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Expired reports whether the token carries an expiry that has passed.
// Tokens without a readable expiry are treated as live; the backend still
// rejects them with a 401 if they are stale.
func (s *Session) Expired() bool {
	exp := s.ExpiresAt()
	if exp.IsZero() {
		return false
	}
	return time.Now().After(exp)
}
