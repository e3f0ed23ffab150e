package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(now time.Time) *JWTService {
	s := NewJWTService("test-secret", time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestJWTService_IssueAndVerify(t *testing.T) {
	s := newTestJWTService(time.Now())

	token, err := s.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestJWTService_DefaultTTL(t *testing.T) {
	s := NewJWTService("test-secret", 0)
	assert.Equal(t, DefaultTokenTTL, s.TTL())
	assert.Equal(t, 7*24*time.Hour, s.TTL())
}

func TestJWTService_ClaimsCarryIDAndLifetime(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestJWTService(issuedAt)

	token, err := s.Issue(7)
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issuedAt.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestJWTService_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	token, err := newTestJWTService(issuedAt).Issue(1)
	require.NoError(t, err)

	_, err = newTestJWTService(time.Now()).Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenBadSignature)
	assert.NotErrorIs(t, err, ErrTokenMalformed)
}

func TestJWTService_ValidJustBeforeExpiry(t *testing.T) {
	issuedAt := time.Now()
	token, err := newTestJWTService(issuedAt).Issue(1)
	require.NoError(t, err)

	_, err = newTestJWTService(issuedAt.Add(59 * time.Minute)).Verify(token)
	assert.NoError(t, err)
}

func TestJWTService_BadSignature(t *testing.T) {
	token, err := NewJWTService("other-secret", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestJWTService_ForeignAlgorithmIsBadSignature(t *testing.T) {
	claims := &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestJWTService_Malformed(t *testing.T) {
	s := NewJWTService("test-secret", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"three garbage segments", "invalid.jwt.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			assert.ErrorIs(t, err, ErrTokenMalformed)
		})
	}
}

func TestJWTService_MissingClaims(t *testing.T) {
	s := NewJWTService("test-secret", time.Hour)

	t.Run("no expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 1}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = s.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("no user id", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = s.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})
}
