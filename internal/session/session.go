// Package session manages the account state: an opaque bearer token plus a
// couple of locally held profile fields. The session is authenticated iff a
// token is stored; a stale token only shows up when an authenticated call
// fails, there is no refresh protocol.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/store/kvstore"
)

// Profile is what the Account screen shows and edits.
type Profile struct {
	Email    string // decoded from the token, read-only
	Birthday string // local-only
	Phone    string // local-only
}

// Session wraps the persisted token and profile fields.
type Session struct {
	client *api.Client
	store  *kvstore.Store
}

func New(client *api.Client, store *kvstore.Store) *Session {
	return &Session{client: client, store: store}
}

// Token returns the stored bearer token, empty when anonymous.
func (s *Session) Token() (string, error) {
	tok, _, err := s.store.Get(kvstore.KeyToken)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(tok), nil
}

// Authenticated reports whether a token is present. Presence is the whole
// check; validity is the server's call.
func (s *Session) Authenticated() (bool, error) {
	tok, err := s.Token()
	return tok != "", err
}

// SetToken stores a token, stripping any "Bearer " prefix.
func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if l := strings.ToLower(token); strings.HasPrefix(l, "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return fmt.Errorf("empty token")
	}
	return s.store.Set(kvstore.KeyToken, token)
}

// Profile assembles email (from the token, best-effort) and the locally
// stored optional fields.
func (s *Session) Profile() (Profile, error) {
	var p Profile
	tok, err := s.Token()
	if err != nil {
		return p, err
	}
	if tok != "" {
		// display only, so no signature verification
		p.Email = emailFromToken(tok)
	}
	if v, ok, err := s.store.Get(kvstore.KeyBirthday); err != nil {
		return p, err
	} else if ok {
		p.Birthday = v
	}
	if v, ok, err := s.store.Get(kvstore.KeyPhone); err != nil {
		return p, err
	} else if ok {
		p.Phone = v
	}
	return p, nil
}

// SaveProfile persists the editable fields.
func (s *Session) SaveProfile(birthday, phone string) error {
	if err := s.store.Set(kvstore.KeyBirthday, strings.TrimSpace(birthday)); err != nil {
		return err
	}
	return s.store.Set(kvstore.KeyPhone, strings.TrimSpace(phone))
}

// Logout clears the token and the locally held profile fields.
func (s *Session) Logout() error {
	return s.store.RemoveMany([]string{kvstore.KeyToken, kvstore.KeyBirthday, kvstore.KeyPhone})
}

// DeleteAccount calls the destructive endpoint and clears local state only
// after the server confirmed. On failure nothing local changes, so the
// still-live account keeps its session.
func (s *Session) DeleteAccount(ctx context.Context) error {
	tok, err := s.Token()
	if err != nil {
		return err
	}
	if tok == "" {
		return fmt.Errorf("not logged in")
	}
	if err := s.client.DeleteAccount(ctx, tok); err != nil {
		return err
	}
	return s.Logout()
}

// Register creates a new account; the caller still has to log in afterwards.
func (s *Session) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}
	return s.client.Register(ctx, email, password)
}

// PrivacyAccepted reports whether the policy was accepted on this device.
func (s *Session) PrivacyAccepted() (bool, error) {
	v, ok, err := s.store.Get(kvstore.KeyPrivacyAccepted)
	if err != nil {
		return false, err
	}
	return ok && v == "true", nil
}

// AcceptPrivacy records acceptance.
func (s *Session) AcceptPrivacy() error {
	return s.store.Set(kvstore.KeyPrivacyAccepted, "true")
}

func emailFromToken(token string) string {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	if email, ok := claims["email"].(string); ok {
		return email
	}
	return ""
}
