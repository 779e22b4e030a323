// Package auth resolves the user behind a request and guards routes.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// SessionCookie carries the session token for browser clients
const SessionCookie = "cognilink_session"

// ErrUnauthenticated is returned when a request carries no valid credentials
var ErrUnauthenticated = errors.New("unauthenticated")

// User is an authenticated account
type User struct {
	Email string `json:"email" mapstructure:"email"`
	Name  string `json:"name,omitempty" mapstructure:"name"`
}

// Provider authenticates requests
type Provider interface {
	// Authenticate returns the request's user, or ErrUnauthenticated
	Authenticate(r *http.Request) (*User, error)

	// Lookup resolves a raw token, as submitted on the login form
	Lookup(token string) (*User, error)
}

// TokenProvider maps opaque tokens to users. Tokens arrive as a bearer
// Authorization header or in the session cookie.
type TokenProvider struct {
	users map[string]User
}

// NewTokenProvider creates a provider from a token -> user table
func NewTokenProvider(users map[string]User) *TokenProvider {
	table := make(map[string]User, len(users))
	for token, u := range users {
		if token != "" {
			table[token] = u
		}
	}
	return &TokenProvider{users: table}
}

// Lookup resolves a raw token
func (p *TokenProvider) Lookup(token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	u, ok := p.users[token]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return &u, nil
}

// Authenticate resolves the request's token
func (p *TokenProvider) Authenticate(r *http.Request) (*User, error) {
	return p.Lookup(Token(r))
}

// Token extracts the credential from a request; the header wins over the
// cookie
func Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

type userKey struct{}

// WithUser returns ctx carrying u
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the user stored by the middleware, if any
func UserFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey{}).(*User)
	return u, ok && u != nil
}
