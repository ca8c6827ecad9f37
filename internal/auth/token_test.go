package auth

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := NewTokenManager("secret", 24*time.Hour, "test")
	id := uuid.Must(uuid.NewV4())

	token, err := m.Issue(id, "a@x.com", "Ana")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "Ana", claims.Name)
	assert.NotEmpty(t, claims.Permissions)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "test")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.Issue(uuid.Must(uuid.NewV4()), "a@x.com", "Ana")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_TamperedSignature(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "test")
	other := NewTokenManager("other-secret", time.Hour, "test")

	token, err := other.Issue(uuid.Must(uuid.NewV4()), "a@x.com", "Ana")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "test")
	other := NewTokenManager("secret", time.Hour, "someone-else")

	token, err := other.Issue(uuid.Must(uuid.NewV4()), "a@x.com", "Ana")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPasswordHash(hash, "hunter22"))
	assert.False(t, CheckPasswordHash(hash, "hunter23"))
}

func TestPrincipalContext(t *testing.T) {
	assert.Equal(t, KindAnonymous, FromContext(context.Background()).Kind)

	profileID := uuid.Must(uuid.NewV4())
	adminID := uuid.Must(uuid.NewV4())
	ctx := WithPrincipal(context.Background(), RestrictedPrincipal(profileID, adminID))

	p := FromContext(ctx)
	assert.True(t, p.IsRestricted())
	assert.False(t, p.IsAdmin())
	assert.Equal(t, profileID, p.ID)
	assert.Equal(t, adminID, p.AdminID)
}
