package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// SignToken mints an HS256 token the way the platform's identity issuer does.
// extra claims are merged over the defaults (userId, exp, iat).
func SignToken(t *testing.T, secret, userID string, expiresIn time.Duration, extra map[string]any) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"exp": now.Add(expiresIn).Unix(),
		"iat": now.Unix(),
	}
	if userID != "" {
		claims["userId"] = userID
	}
	for k, v := range extra {
		claims[k] = v
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err, "failed to sign test token")
	return token
}

// BearerHeader formats a token for the Authorization header.
func BearerHeader(token string) string {
	return "Bearer " + token
}
