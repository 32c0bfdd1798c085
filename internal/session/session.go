// Package session is the login gate: a fixed credential check that issues a
// mock token and keeps it in durable local storage under TokenKey.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clientflow/clientflow/internal/log"
)

// TokenKey is the storage key holding the session token.
const TokenKey = "token"

// The only accepted credentials.
const (
	AdminEmail    = "admin@user.com"
	AdminPassword = "Pass1234"
)

// DefaultSecret signs tokens when no secret is configured. Tokens are a
// presence marker, not a security boundary.
const DefaultSecret = "clientflow-mock-secret"

var ErrInvalidCredentials = errors.New("invalid credentials")

type User struct {
	Email string
}

// Session is the authentication state held by the root model. A zero
// Session is signed out.
type Session struct {
	User  User
	Token string
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Storage is durable string key/value storage.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Claims carried by the mock token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager issues, restores and clears sessions.
type Manager struct {
	storage Storage
	secret  []byte
	now     func() time.Time
}

func NewManager(storage Storage, secret string) *Manager {
	if secret == "" {
		secret = DefaultSecret
	}
	return &Manager{storage: storage, secret: []byte(secret), now: time.Now}
}

// Login checks the credentials and persists a fresh token. Any mismatch is
// ErrInvalidCredentials and leaves storage untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(AdminPassword)) == 1
	if !emailOK || !passOK {
		log.Warn(log.CatSession, "Rejected login", "email", email)
		return Session{}, ErrInvalidCredentials
	}

	token, err := m.issue(email)
	if err != nil {
		return Session{}, err
	}
	if err := m.storage.Set(ctx, TokenKey, token); err != nil {
		return Session{}, fmt.Errorf("persisting session: %w", err)
	}

	log.Info(log.CatSession, "Signed in", "email", email)
	return Session{User: User{Email: email}, Token: token}, nil
}

// Restore reads the persisted token. A missing token yields a signed-out
// session. A token this manager cannot decode still authenticates; only the
// user email is unknown then.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	token, ok, err := m.storage.Get(ctx, TokenKey)
	if err != nil {
		return Session{}, fmt.Errorf("reading session: %w", err)
	}
	if !ok || token == "" {
		return Session{}, nil
	}

	s := Session{Token: token}
	if claims, err := m.parse(token); err == nil {
		s.User.Email = claims.Email
	} else {
		log.Debug(log.CatSession, "Stored token is opaque", "error", err)
	}
	return s, nil
}

// Logout removes the persisted token.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.storage.Remove(ctx, TokenKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	log.Info(log.CatSession, "Signed out")
	return nil
}

func (m *Manager) issue(email string) (string, error) {
	now := m.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  email,
			Issuer:   "clientflow",
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}
