package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueVerify(t *testing.T) {
	svc := NewTokenService("test-secret")
	token, err := svc.Issue("user-1", "voter@example.com", true)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "voter@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("test-secret")
	svc.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	token, err := svc.Issue("user-1", "voter@example.com", false)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_StillValidJustBeforeExpiry(t *testing.T) {
	svc := NewTokenService("test-secret")
	issued := time.Now()
	svc.now = func() time.Time { return issued }
	token, err := svc.Issue("user-1", "voter@example.com", false)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(TokenTTL - time.Minute) }
	_, err = svc.Verify(token)
	assert.NoError(t, err)
}

func TestTokenService_Invalid(t *testing.T) {
	svc := NewTokenService("test-secret")
	other := NewTokenService("other-secret")
	foreign, err := other.Issue("user-1", "voter@example.com", false)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"wrong secret": foreign,
		"alg none":     noneToken,
		"missing exp":  noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(tok)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}
