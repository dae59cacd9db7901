package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute, 24*time.Hour)

	tests := []struct {
		name   string
		userID int64
		email  string
		role   string
		typ    TokenType
		ttl    time.Duration
	}{
		{name: "office manager access", userID: 1, email: "manager@school.kg", role: "office_manager", typ: Access, ttl: 15 * time.Minute},
		{name: "superadmin refresh", userID: 2, email: "admin@school.kg", role: "superadmin", typ: Refresh, ttl: 24 * time.Hour},
		{name: "teacher access", userID: 42, email: "teacher@school.kg", role: "teacher", typ: Access, ttl: 15 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.userID, tt.email, tt.role, tt.typ)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token, tt.typ)
			require.NoError(t, err)

			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.email, claims.Email)
			assert.Equal(t, tt.role, claims.Role)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tt.ttl), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_GeneratePair(t *testing.T) {
	maker := NewJWTMaker(testSecret, time.Minute, time.Hour)

	access, refresh, err := maker.GeneratePair(7, "user@school.kg", "student")
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	_, err = maker.ParseToken(access, Access)
	assert.NoError(t, err)
	_, err = maker.ParseToken(refresh, Refresh)
	assert.NoError(t, err)

	_, err = maker.ParseToken(access, Refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = maker.ParseToken(refresh, Access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute, time.Hour)

	validToken, err := maker.GenerateToken(1, "user@school.kg", "student", Access)
	require.NoError(t, err)

	expired, err := NewJWTMaker(testSecret, -time.Hour, -time.Hour).GenerateToken(1, "user@school.kg", "student", Access)
	require.NoError(t, err)

	wrongSecret, err := NewJWTMaker("wrong_secret_key", time.Hour, time.Hour).GenerateToken(1, "user@school.kg", "student", Access)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expired},
		{name: "wrong secret key", token: wrongSecret},
		{name: "tampered token", token: validToken + "tampered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token, Access)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	maker := NewJWTMaker(testSecret, time.Second, time.Hour)

	token, err := maker.GenerateToken(1, "user@school.kg", "student", Access)
	require.NoError(t, err)

	_, err = maker.ParseToken(token, Access)
	require.NoError(t, err)

	time.Sleep(2100 * time.Millisecond)

	_, err = maker.ParseToken(token, Access)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
