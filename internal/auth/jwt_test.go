package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestValidateToken_NumericSubject(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub": 42,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	id, err := ValidateToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestValidateToken_StringSubject(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	id, err := ValidateToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestValidateToken_Rejects(t *testing.T) {
	valid := jwt.MapClaims{"sub": 1, "exp": time.Now().Add(time.Hour).Unix()}

	cases := map[string]string{
		"wrong secret": sign(t, jwt.SigningMethodHS256, []byte("other"), valid),
		"expired":      sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": 1, "exp": time.Now().Add(-time.Hour).Unix()}),
		"no expiry":    sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": 1}),
		"no subject":   sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
		"bad subject":  sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "abc", "exp": time.Now().Add(time.Hour).Unix()}),
		"garbage":      "not.a.token",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(testSecret, token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestValidateToken_Empty(t *testing.T) {
	_, err := ValidateToken(testSecret, "")
	assert.ErrorIs(t, err, ErrMissingToken)
}
