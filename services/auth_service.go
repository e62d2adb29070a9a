package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"project-camp/api/logging"
	"project-camp/api/models"
	"project-camp/api/repositories"
	"project-camp/api/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName string
}

// AuthService owns the credential lifecycle: accounts, sessions, emailed
// verification and reset links, and the avatar.
type AuthService struct {
	users     repositories.UserRepository
	tokens    *JWTService
	mailer    utils.Mailer
	passwords *PasswordPolicy
	uploads   *utils.UploadStore
	serverURL string
	clientURL string
	now       func() time.Time
}

func NewAuthService(
	users repositories.UserRepository,
	tokens *JWTService,
	mailer utils.Mailer,
	passwords *PasswordPolicy,
	uploads *utils.UploadStore,
	serverURL, clientURL string,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		mailer:    mailer,
		passwords: passwords,
		uploads:   uploads,
		serverURL: strings.TrimRight(serverURL, "/"),
		clientURL: strings.TrimRight(clientURL, "/"),
		now:       time.Now,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalize(in.Email)
	username := normalize(in.Username)

	if _, err := s.users.FindByEmailOrUsername(ctx, email, username); err == nil {
		return nil, utils.Conflict("User with email or username already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}

	if err := s.passwords.Validate(in.Password); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	token, err := utils.GenerateTemporaryToken(now)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:                   email,
		Username:                username,
		FullName:                strings.TrimSpace(in.FullName),
		Password:                string(hashed),
		Avatar:                  models.Avatar{URL: models.DefaultAvatarURL},
		EmailVerificationToken:  token.Hashed,
		EmailVerificationExpiry: token.Expiry,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.Conflict("User with email or username already exists")
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User '%s' registered", user.Username)

	if err := s.mailer.Send(ctx, utils.VerificationEmail(user.Email, user.Username, s.verificationURL(token.Unhashed))); err != nil {
		return nil, &utils.ApiError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Account created but the verification email could not be sent",
			Err:        err,
		}
	}
	return user, nil
}

// Login checks the credentials and starts a session. The refresh token is
// stored so a later refresh can prove it is the current one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, normalize(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, TokenPair{}, utils.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("finding user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Wrong password for user '%s'", user.Username)
		return nil, TokenPair{}, utils.Unauthorized("Invalid credentials")
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User '%s' logged in", user.Username)
	return user, pair, nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (TokenPair, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return TokenPair{}, err
	}
	user.RefreshToken = pair.RefreshToken
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return TokenPair{}, fmt.Errorf("storing refresh token: %w", err)
	}
	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	user.RefreshToken = ""
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("clearing refresh token: %w", err)
	}
	logging.Logger.Infof("Event ID: LOGOUT, Description: User '%s' logged out", user.Username)
	return nil
}

// RefreshAccessToken rotates the session. A refresh token that is valid but
// no longer the stored one has been used already and is rejected.
func (s *AuthService) RefreshAccessToken(ctx context.Context, incoming string) (TokenPair, error) {
	if incoming == "" {
		return TokenPair{}, utils.Unauthorized("Unauthorized request")
	}
	claims, err := s.tokens.ParseRefreshToken(incoming)
	if err != nil {
		return TokenPair{}, utils.Unauthorized("Invalid refresh token")
	}
	userID, err := UserIDFromClaims(claims.UserID)
	if err != nil {
		return TokenPair{}, utils.Unauthorized("Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return TokenPair{}, utils.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("finding user: %w", err)
	}
	if user.RefreshToken != incoming {
		logging.Logger.Warnf("Event ID: REFRESH_TOKEN_REUSED, Description: Stale refresh token presented for user '%s'", user.Username)
		return TokenPair{}, utils.Unauthorized("Refresh token is expired or used")
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, utils.BadRequest("Email verification token is missing")
	}
	user, err := s.users.FindByVerificationToken(ctx, utils.HashToken(token), s.now())
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, utils.BadRequest("Token is invalid or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("finding user by token: %w", err)
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = ""
	user.EmailVerificationExpiry = time.Time{}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("verifying email: %w", err)
	}
	logging.Logger.Infof("Event ID: EMAIL_VERIFIED, Description: User '%s' verified email", user.Username)
	return user, nil
}

func (s *AuthService) ResendEmailVerification(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return utils.Conflict("Email is already verified")
	}

	now := s.now()
	token, err := utils.GenerateTemporaryToken(now)
	if err != nil {
		return err
	}
	user.EmailVerificationToken = token.Hashed
	user.EmailVerificationExpiry = token.Expiry
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("storing verification token: %w", err)
	}
	return s.mailer.Send(ctx, utils.VerificationEmail(user.Email, user.Username, s.verificationURL(token.Unhashed)))
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalize(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return utils.NotFound("User does not exist")
	}
	if err != nil {
		return fmt.Errorf("finding user: %w", err)
	}

	now := s.now()
	token, err := utils.GenerateTemporaryToken(now)
	if err != nil {
		return err
	}
	user.ForgotPasswordToken = token.Hashed
	user.ForgotPasswordExpiry = token.Expiry
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}
	return s.mailer.Send(ctx, utils.PasswordResetEmail(user.Email, user.Username, s.clientURL+"/reset-password/"+token.Unhashed))
}

// ResetPassword sets a new password from an emailed link and ends any open
// session.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.FindByResetToken(ctx, utils.HashToken(token), s.now())
	if errors.Is(err, repositories.ErrNotFound) {
		return utils.BadRequest("Token is invalid or expired")
	}
	if err != nil {
		return fmt.Errorf("finding user by token: %w", err)
	}
	if err := s.setPassword(user, newPassword); err != nil {
		return err
	}
	user.ForgotPasswordToken = ""
	user.ForgotPasswordExpiry = time.Time{}
	user.RefreshToken = ""
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	logging.Logger.Infof("Event ID: PASSWORD_RESET, Description: User '%s' reset password", user.Username)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return utils.BadRequest("Invalid old password")
	}
	if err := s.setPassword(user, newPassword); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}
	logging.Logger.Infof("Event ID: PASSWORD_CHANGED, Description: User '%s' changed password", user.Username)
	return nil
}

func (s *AuthService) setPassword(user *models.User, password string) error {
	if err := s.passwords.Validate(password); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	user.UpdatedAt = s.now()
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, userID)
}

// UpdateAvatar stores the uploaded image and drops the previous local file.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, file *multipart.FileHeader) (*models.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stored, err := s.uploads.Save(file)
	if err != nil {
		return nil, fmt.Errorf("saving avatar: %w", err)
	}

	previous := user.Avatar.LocalPath
	user.Avatar = models.Avatar{URL: stored.URL, LocalPath: stored.LocalPath}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating avatar: %w", err)
	}

	if previous != "" {
		if err := os.Remove(previous); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Logger.Warnf("Event ID: AVATAR_CLEANUP_FAILED, Description: Could not remove %s: %v", previous, err)
		}
	}
	return user, nil
}

func (s *AuthService) findUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, utils.NotFound("User does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return user, nil
}

func (s *AuthService) verificationURL(token string) string {
	return s.serverURL + "/api/v1/auth/verify-email/" + token
}
