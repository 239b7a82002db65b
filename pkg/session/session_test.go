package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
)

func testHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestFromContextDefaultsToVisitor(t *testing.T) {
	s := FromContext(context.Background())
	assert.False(t, s.Authenticated)
	assert.Equal(t, RoleVisitor, s.Role)
	assert.False(t, s.IsAdmin())
}

func TestWithSession(t *testing.T) {
	admin := Session{Authenticated: true, Role: RoleAdmin}
	ctx := WithSession(context.Background(), admin)
	assert.Equal(t, admin, FromContext(ctx))
	assert.NoError(t, RequireAdmin(ctx, "delete"))
}

func TestLogin(t *testing.T) {
	hash := testHash(t, "s3cret")

	s, err := Login(hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, s.IsAdmin())

	s, err = Login(hash, "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	assert.False(t, s.IsAdmin())

	s, err = Login(hash, "")
	require.NoError(t, err)
	assert.Equal(t, Visitor(), s)
}

func TestLoginWithoutConfiguredHash(t *testing.T) {
	s, err := Login("", "anything")
	assert.True(t, apperrors.IsForbidden(err))
	assert.False(t, s.IsAdmin())
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	s, err := Login(hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, s.IsAdmin())

	_, err = HashPassword("")
	assert.True(t, apperrors.IsUserInput(err))
}

func TestRequireAdmin(t *testing.T) {
	err := RequireAdmin(context.Background(), "pull_force")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	visitor := WithSession(context.Background(), Session{Authenticated: true, Role: RoleVisitor})
	assert.True(t, apperrors.IsForbidden(RequireAdmin(visitor, "delete")))
}
