package handlers

import (
	"net/http"
	"time"

	"project-camp/api/middleware"
	"project-camp/api/services"
	"project-camp/api/utils"

	"github.com/gorilla/mux"
)

// CookieOptions controls the session cookies. Both are httpOnly.
type CookieOptions struct {
	Secure        bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

type AuthHandler struct {
	Service *services.AuthService
	Cookies CookieOptions
}

func NewAuthHandler(service *services.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{Service: service, Cookies: cookies}
}

func (h *AuthHandler) setSession(w http.ResponseWriter, pair services.TokenPair) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, pair.AccessToken, h.Cookies.AccessMaxAge))
	http.SetCookie(w, h.cookie(middleware.RefreshTokenCookie, pair.RefreshToken, h.Cookies.RefreshMaxAge))
}

func (h *AuthHandler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, "", -1))
	http.SetCookie(w, h.cookie(middleware.RefreshTokenCookie, "", -1))
}

func (h *AuthHandler) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case maxAge < 0:
		c.MaxAge = -1
	case maxAge > 0:
		c.MaxAge = int(maxAge.Seconds())
	}
	return c
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	user, err := h.Service.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{"user": user},
		"User registered successfully and verification email has been sent on your email")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	user, pair, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	h.setSession(w, pair)
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"user":        user,
		"accessToken": pair.AccessToken,
	}, "User logged in successfully")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.Logout(r.Context(), user.ID); err != nil {
		utils.WriteError(w, err)
		return
	}
	h.clearSession(w)
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "User logged out")
}

// RefreshToken reads the refresh token from its cookie only.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var incoming string
	if c, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		incoming = c.Value
	}
	pair, err := h.Service.RefreshAccessToken(r.Context(), incoming)
	if err != nil {
		h.clearSession(w)
		utils.WriteError(w, err)
		return
	}
	h.setSession(w, pair)
	utils.WriteJSON(w, http.StatusOK, map[string]any{"accessToken": pair.AccessToken}, "Access token refreshed")
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.VerifyEmail(r.Context(), mux.Vars(r)["verificationToken"]); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"isEmailVerified": true}, "Email is verified")
}

func (h *AuthHandler) ResendEmailVerification(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.ResendEmailVerification(r.Context(), user.ID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "Mail has been sent to your email ID")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.ForgotPassword(r.Context(), req.Email); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "Password reset mail has been sent on your mail id")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.ResetPassword(r.Context(), mux.Vars(r)["resetToken"], req.NewPassword); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "Password reset successfully")
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{}, "Password changed successfully")
}

func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user, "Current user fetched successfully")
}

func (h *AuthHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		utils.WriteError(w, bodyError(err, "Invalid multipart payload"))
		return
	}
	files := r.MultipartForm.File["avatar"]
	if len(files) == 0 {
		utils.WriteError(w, utils.BadRequest("Avatar file is required"))
		return
	}
	updated, err := h.Service.UpdateAvatar(r.Context(), user.ID, files[0])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated, "Avatar updated successfully")
}
