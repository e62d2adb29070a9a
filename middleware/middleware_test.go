package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"project-camp/api/config"
	"project-camp/api/middleware"
	"project-camp/api/models"
	"project-camp/api/repositories"
	"project-camp/api/services"
	"project-camp/api/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type expiredVerifier struct{}

func (expiredVerifier) ParseAccessToken(string) (*services.AccessClaims, error) {
	return nil, services.ErrTokenExpired
}

func newAuthFixture(t *testing.T) (*middleware.Authenticator, *services.JWTService, *models.User, *repositories.Store) {
	t.Helper()
	store := repositories.NewMemoryStore()
	tokens, err := services.NewJWTService(config.TokenConfig{
		AccessSecret:  "a",
		AccessExpiry:  time.Minute,
		RefreshSecret: "r",
		RefreshExpiry: time.Hour,
	})
	require.NoError(t, err)

	user := &models.User{Email: "ana@example.com", Username: "ana"}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return middleware.NewAuthenticator(tokens, store.Users), tokens, user, store
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(user.Username))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRequireAuthAcceptsCookieAndBearer(t *testing.T) {
	auth, tokens, user, _ := newAuthFixture(t)
	pair, err := tokens.Issue(user)
	require.NoError(t, err)
	handler := auth.RequireAuth(http.HandlerFunc(whoAmI))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: pair.AccessToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRejects(t *testing.T) {
	auth, tokens, _, _ := newAuthFixture(t)
	ghost, err := tokens.Issue(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)

	cases := map[string]func(*http.Request){
		"no token":     func(*http.Request) {},
		"garbage":      func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") },
		"unknown user": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+ghost.AccessToken) },
	}
	for name, prepare := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			prepare(req)
			rec := httptest.NewRecorder()
			auth.RequireAuth(http.HandlerFunc(whoAmI)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
		})
	}
}

func TestRequireAuthReportsExpiry(t *testing.T) {
	_, _, _, store := newAuthFixture(t)
	auth := middleware.NewAuthenticator(expiredVerifier{}, store.Users)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	auth.RequireAuth(http.HandlerFunc(whoAmI)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token expired", decodeError(t, rec).Message)
}

func TestCORS(t *testing.T) {
	handler := middleware.CORS("http://app.test, http://other.test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverAndRequestID(t *testing.T) {
	handler := middleware.RequestLogger(middleware.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "Internal server error", decodeError(t, rec).Message)
}

func TestLimitBody(t *testing.T) {
	var readErr error
	handler := middleware.LimitBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("12345678"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NoError(t, readErr)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("123456789"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	var tooLarge *http.MaxBytesError
	require.True(t, errors.As(readErr, &tooLarge))
	assert.EqualValues(t, 8, tooLarge.Limit)
}
