package services

import (
	"testing"
	"time"

	"project-camp/api/config"
	"project-camp/api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testTokenConfig() config.TokenConfig {
	return config.TokenConfig{
		AccessSecret:  "access-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshExpiry: 24 * time.Hour,
	}
}

func newTestJWT(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(testTokenConfig())
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRequiresSecrets(t *testing.T) {
	_, err := NewJWTService(config.TokenConfig{AccessSecret: "a"})
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	svc := newTestJWT(t)
	user := &models.User{ID: primitive.NewObjectID(), Email: "ana@example.com", Username: "ana"}

	pair, err := svc.Issue(user)
	require.NoError(t, err)

	access, err := svc.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), access.UserID)
	assert.Equal(t, "ana@example.com", access.Email)
	assert.Equal(t, "ana", access.Username)

	refresh, err := svc.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), refresh.UserID)
	assert.NotEmpty(t, refresh.ID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	svc := newTestJWT(t)
	pair, err := svc.Issue(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)

	_, err = svc.ParseRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.ParseAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestExpiredAccessToken(t *testing.T) {
	svc := newTestJWT(t)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, err := svc.Issue(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ParseAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestOtherAlgorithmsAreRejected(t *testing.T) {
	svc := newTestJWT(t)
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &AccessClaims{
		UserID: primitive.NewObjectID().Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := token.SignedString([]byte(testTokenConfig().AccessSecret))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	svc := newTestJWT(t)
	fixed := time.Now()
	svc.now = func() time.Time { return fixed }
	user := &models.User{ID: primitive.NewObjectID()}

	first, err := svc.Issue(user)
	require.NoError(t, err)
	second, err := svc.Issue(user)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}
