// Package session carries the caller's login state through a command.
//
// A Session is created once per invocation, after the password check, and
// travels in the context. Destructive operations call RequireAdmin.
package session

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
)

// Role is what a session is allowed to do.
type Role string

const (
	// RoleAdmin may delete records, force a pull and restore backups.
	RoleAdmin Role = "admin"
	// RoleVisitor may read and add records.
	RoleVisitor Role = "visitor"
)

// Session is the login state of one invocation.
type Session struct {
	Authenticated bool `json:"authenticated"`
	Role          Role `json:"role"`
}

// Visitor is the session of a caller that has not logged in.
func Visitor() Session {
	return Session{Role: RoleVisitor}
}

// IsAdmin reports whether the session holds the admin role.
func (s Session) IsAdmin() bool {
	return s.Authenticated && s.Role == RoleAdmin
}

type sessionContextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext returns the session in ctx, or a visitor session.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionContextKey{}).(Session); ok {
		return s
	}
	return Visitor()
}

// ErrInvalidPassword is returned by Login for a wrong password.
var ErrInvalidPassword = errors.New("invalid password")

// Login checks password against the bcrypt hash. An empty password yields a
// visitor session. An empty hash means no admin is configured, so any
// password is rejected.
func Login(hash, password string) (Session, error) {
	if password == "" {
		return Visitor(), nil
	}
	if hash == "" {
		return Visitor(), apperrors.NewForbiddenError("no admin password is configured")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Visitor(), ErrInvalidPassword
		}
		return Visitor(), fmt.Errorf("failed to check password: %w", err)
	}

	return Session{Authenticated: true, Role: RoleAdmin}, nil
}

// HashPassword returns the bcrypt hash to store in DESK_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", apperrors.NewUserInputError("password must not be empty", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// RequireAdmin fails with a forbidden error unless ctx carries an admin
// session. op names the guarded action in the error.
func RequireAdmin(ctx context.Context, op string) error {
	if FromContext(ctx).IsAdmin() {
		return nil
	}
	return apperrors.NewForbiddenError("admin login required").WithOp(op)
}
