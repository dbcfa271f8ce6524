package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/testutil"
)

const signingKey = "test-signing-key"

var verifier = NewVerifier(signingKey)

func Test_VerifyToken_ValidToken(t *testing.T) {
	token := testutil.SignToken(t, signingKey, "user-123", time.Hour, map[string]any{
		"role":     "TEACHER",
		"schoolId": "school-9",
	})

	identity, err := verifier.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)
	assert.Equal(t, "TEACHER", identity.Role)
	assert.Equal(t, "school-9", identity.SchoolID)
}

func Test_VerifyToken_LegacyIDClaim(t *testing.T) {
	token := testutil.SignToken(t, signingKey, "", time.Hour, map[string]any{"id": "legacy-7"})

	identity, err := verifier.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "legacy-7", identity.UserID)
	assert.Empty(t, identity.Role)
}

func Test_VerifyToken_NumericIDClaim(t *testing.T) {
	token := testutil.SignToken(t, signingKey, "", time.Hour, map[string]any{"id": 42})

	identity, err := verifier.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", identity.UserID)
}

func Test_VerifyToken_UserIDWinsOverLegacyID(t *testing.T) {
	token := testutil.SignToken(t, signingKey, "new-id", time.Hour, map[string]any{"id": "old-id"})

	identity, err := verifier.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "new-id", identity.UserID)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := verifier.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_WrongSecret(t *testing.T) {
	token := testutil.SignToken(t, "some-other-key", "user-123", time.Hour, nil)

	_, err := verifier.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token := testutil.SignToken(t, signingKey, "user-123", -time.Hour, nil)

	_, err := verifier.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_LeewayAcceptsSmallSkew(t *testing.T) {
	token := testutil.SignToken(t, signingKey, "user-123", -5*time.Second, nil)

	lenient := NewVerifier(signingKey, WithLeeway(30*time.Second))
	_, err := lenient.ValidateToken(token)
	require.NoError(t, err)
}

func Test_ValidateToken_MissingExpiryAcceptedWhenSigned(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": "user-123"}).
		SignedString([]byte(signingKey))
	require.NoError(t, err)

	identity, err := verifier.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": "user-123"}).
		SignedString([]byte("some-other-key"))
	require.NoError(t, err)
	_, err = verifier.ValidateToken(forged)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_NoneAlgorithmRejected(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "user-123",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_NoCallerID(t *testing.T) {
	token := testutil.SignToken(t, signingKey, "", time.Hour, map[string]any{"role": "STUDENT"})

	_, err := verifier.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has no caller id"))
}

func Test_ValidateToken_MissingSecret(t *testing.T) {
	token := testutil.SignToken(t, signingKey, "user-123", time.Hour, nil)

	_, err := NewVerifier("").ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMisconfigured))
}
