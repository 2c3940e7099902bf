package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("user-123", []byte("super-secret"), time.Hour)
	require.NoError(t, err)

	got, err := GetUserIDFromToken(tok, []byte("super-secret"))
	require.NoError(t, err)
	assert.Equal(t, "user-123", got)
}

func TestGetUserIDFromToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("u1", []byte("secret"), -time.Second)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(tok, []byte("secret"))
	assert.Equal(t, common.ErrTokenExpired, err)
}

func TestGetUserIDFromToken_Invalid(t *testing.T) {
	t.Parallel()

	good, err := GenerateToken("u2", []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u2"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u2",
	}).SignedString([]byte("right-secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", good, "wrong-secret"},
		{"malformed", "not.a.jwt", "k"},
		{"alg none", unsigned, "right-secret"},
		{"foreign issuer", foreign, "right-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GetUserIDFromToken(tt.token, []byte(tt.secret))
			assert.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}
