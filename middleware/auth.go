package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"project-camp/api/logging"
	"project-camp/api/models"
	"project-camp/api/repositories"
	"project-camp/api/services"
	"project-camp/api/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type contextKey int

const userKey contextKey = iota

type TokenVerifier interface {
	ParseAccessToken(token string) (*services.AccessClaims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Authenticator resolves the caller from the access token. It never refreshes;
// an expired token is a 401 and the client decides what to do.
type Authenticator struct {
	tokens TokenVerifier
	users  UserFinder
}

func NewAuthenticator(tokens TokenVerifier, users UserFinder) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := AccessToken(r)
		if token == "" {
			logging.Logger.Debugf("Event ID: AUTH_MISSING_TOKEN, Description: No access token for %s %s", r.Method, r.URL.Path)
			utils.WriteError(w, utils.Unauthorized("Unauthorized request"))
			return
		}

		claims, err := a.tokens.ParseAccessToken(token)
		if err != nil {
			logging.Logger.Debugf("Event ID: AUTH_INVALID_TOKEN, Description: %s %s: %v", r.Method, r.URL.Path, err)
			if errors.Is(err, services.ErrTokenExpired) {
				utils.WriteError(w, utils.Unauthorized("Access token expired"))
				return
			}
			utils.WriteError(w, utils.Unauthorized("Invalid access token"))
			return
		}

		userID, err := services.UserIDFromClaims(claims.UserID)
		if err != nil {
			utils.WriteError(w, utils.Unauthorized("Invalid access token"))
			return
		}
		user, err := a.users.FindByID(r.Context(), userID)
		if errors.Is(err, repositories.ErrNotFound) {
			utils.WriteError(w, utils.Unauthorized("Invalid access token"))
			return
		}
		if err != nil {
			utils.WriteError(w, utils.Internal(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// AccessToken reads the cookie first and falls back to a bearer header.
func AccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
