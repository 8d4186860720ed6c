package security

import (
	"os"
	"testing"
	"time"

	"knowledge_hub/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		JWTKey: []byte("test-secret-key"),
		JWTExp: time.Hour,
	}
	InitJWT()
	os.Exit(m.Run())
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	tokenString, err := GenerateToken("user-1", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwtauth.VerifyToken(TokenAuth, tokenString)
	require.NoError(t, err)

	userID, ok := token.Get("user_id")
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)

	email, ok := token.Get("email")
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", email)
}

func TestVerifyToken_Expired(t *testing.T) {
	saved := config.AppConfig.JWTExp
	config.AppConfig.JWTExp = -time.Minute
	defer func() { config.AppConfig.JWTExp = saved }()

	tokenString, err := GenerateToken("user-1", "ada@example.com")
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(TokenAuth, tokenString)
	require.Error(t, err)
	assert.Equal(t, jwtauth.ErrExpired, jwtauth.ErrorReason(err))
}

func TestVerifyToken_WrongKey(t *testing.T) {
	other := jwtauth.New("HS256", []byte("some-other-key"), nil)
	claims := map[string]interface{}{"user_id": "user-1", "exp": time.Now().Add(time.Hour).Unix()}
	_, forged, err := other.Encode(claims)
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(TokenAuth, forged)
	assert.Error(t, err)
}

func TestClaimExtraction(t *testing.T) {
	id, err := GetUserIDFromClaims(map[string]interface{}{"user_id": "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = GetUserIDFromClaims(map[string]interface{}{})
	assert.Error(t, err)

	_, err = GetUserIDFromClaims(map[string]interface{}{"user_id": 42})
	assert.Error(t, err)
}
