package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/swapyard/swapyard-api/internal/application"
	"github.com/swapyard/swapyard-api/internal/domain/entity"
	"github.com/swapyard/swapyard-api/internal/interface/middleware"
	"github.com/swapyard/swapyard-api/pkg/response"
	"github.com/swapyard/swapyard-api/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type signUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strongpwd"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ownerTokenRequest struct {
	ID    string `json:"id" binding:"required,uuid"`
	Token string `json:"token" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type resetPassRequest struct {
	ID       string `json:"id" binding:"required,uuid"`
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,strongpwd"`
}

type updateProfileRequest struct {
	Name string `json:"name" binding:"required"`
}

func profileJSON(u *entity.User) gin.H {
	return gin.H{
		"id":       u.ID,
		"name":     u.Name,
		"email":    u.Email,
		"verified": u.Verified,
		"avatar":   u.AvatarURL,
	}
}

// SignUp POST /auth/sign-up
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	u, link, err := h.Svc.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrEmailTaken) {
			// 401 kept for the existing mobile client; 409 would be the
			// conventional status here.
			response.Error(c, http.StatusUnauthorized, "user already exists", nil)
			return
		}
		h.fail(c, err, "sign up failed")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": profileJSON(u), "verify_link": link}, "user created successfully", nil)
}

// SignIn POST /auth/sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	u, pair, err := h.Svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, application.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "email or password is incorrect", nil)
		default:
			h.fail(c, err, "sign in failed")
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": profileJSON(u), "tokens": pair}, "signed in", nil)
}

// VerifyEmail POST /auth/verify
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req ownerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.VerifyEmail(c.Request.Context(), req.ID, req.Token); err != nil {
		if errors.Is(err, application.ErrUnauthorized) {
			response.Error(c, http.StatusForbidden, "invalid or expired token", nil)
			return
		}
		h.fail(c, err, "verification failed")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email verified", nil)
}

// Refresh POST /auth/refresh-token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusForbidden, "missing refresh token", validation.ToDetails(err))
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, application.ErrUnauthorized) || errors.Is(err, application.ErrSessionCompromised) {
			response.Error(c, http.StatusForbidden, "unauthorized request", nil)
			return
		}
		h.fail(c, err, "refresh failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tokens": pair}, "token refreshed", nil)
}

// ReissueVerification GET /auth/verify-token (auth required)
func (h *AuthHandler) ReissueVerification(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	link, err := h.Svc.ReissueVerification(c.Request.Context(), p.ID)
	if err != nil {
		h.fail(c, err, "could not issue verification link")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"verify_link": link}, "verification link sent", nil)
}

// CheckResetToken POST /auth/verify-pass-reset-token
func (h *AuthHandler) CheckResetToken(c *gin.Context) {
	var req ownerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	ok, err := h.Svc.CheckResetToken(c.Request.Context(), req.ID, req.Token)
	if err != nil {
		h.fail(c, err, "token check failed")
		return
	}
	if !ok {
		response.Error(c, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"valid": true}, "token is valid", nil)
}

// ForgetPassword POST /auth/forget-pass
func (h *AuthHandler) ForgetPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	if _, err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.fail(c, err, "could not issue reset link")
		return
	}
	response.Success[any](c, http.StatusOK, nil, "reset link sent", nil)
}

// ResetPassword POST /auth/reset-pass
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.CompleteReset(c.Request.Context(), req.ID, req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, application.ErrUnauthorized):
			response.Error(c, http.StatusForbidden, "invalid or expired token", nil)
		case errors.Is(err, application.ErrPasswordReused):
			response.Error(c, http.StatusUnprocessableEntity, "new password must be different", nil)
		case errors.Is(err, application.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "user not found", nil)
		default:
			h.fail(c, err, "password reset failed")
		}
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password updated", nil)
}

// SignOut POST /auth/sign-out (auth required)
func (h *AuthHandler) SignOut(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusForbidden, "missing refresh token", validation.ToDetails(err))
		return
	}
	if err := h.Svc.SignOut(c.Request.Context(), p.ID, req.RefreshToken); err != nil {
		if errors.Is(err, application.ErrUnauthorized) {
			response.Error(c, http.StatusForbidden, "unauthorized request", nil)
			return
		}
		h.fail(c, err, "sign out failed")
		return
	}
	response.Success[any](c, http.StatusOK, nil, "signed out", nil)
}

// GetProfile GET /auth/profile (auth required)
func (h *AuthHandler) GetProfile(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": p}, "profile", nil)
}

// GetPublicProfile GET /auth/profile/:id
func (h *AuthHandler) GetPublicProfile(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid profile id", nil)
		return
	}
	u, err := h.Svc.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "profile not found", nil)
			return
		}
		h.fail(c, err, "profile lookup failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": gin.H{
		"id":     u.ID,
		"name":   u.Name,
		"avatar": u.AvatarURL,
	}}, "profile", nil)
}

// UpdateProfile PATCH /auth/update-profile (auth required)
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), p.ID, req.Name)
	if err != nil {
		h.fail(c, err, "profile update failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": profileJSON(u)}, "profile updated", nil)
}

// UpdateAvatar PATCH /auth/update-avatar (auth required, multipart)
func (h *AuthHandler) UpdateAvatar(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "avatar file is required", nil)
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error(c, http.StatusUnprocessableEntity, "invalid file type", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err, "could not read upload")
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UpdateAvatar(c.Request.Context(), p.ID, f, fh.Filename, contentType)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.fail(c, err, "avatar update failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar": url}, "avatar updated", nil)
}

func (h *AuthHandler) fail(c *gin.Context, err error, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).Error(msg)
	}
	response.Error(c, http.StatusInternalServerError, "something went wrong", nil)
}
