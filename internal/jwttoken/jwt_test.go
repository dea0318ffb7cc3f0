package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clinica/pkg/domain-errors"
)

var (
	svc = NewService("test-signing-key", "clinica-test", time.Hour)
	now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

func Test_Generate(t *testing.T) {
	token, jti, expiresAt, err := svc.Generate(42, false, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.False(t, claims.Admin)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Parse_InvalidToken(t *testing.T) {
	_, err := svc.Parse("invalid-token-string")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Parse_ExpiredToken(t *testing.T) {
	token, _, _, err := svc.Generate(42, false, now.Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = svc.Parse(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func Test_Parse_WrongKey(t *testing.T) {
	other := NewService("another-key", "clinica-test", time.Hour)
	token, _, _, err := other.Generate(42, true, time.Now())
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_AdaptsClaims(t *testing.T) {
	token, jti, _, err := svc.Generate(7, true, time.Now())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.True(t, claims.Admin)
	assert.Equal(t, jti, claims.JTI)
}
