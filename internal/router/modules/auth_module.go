package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/swapyard/swapyard-api/internal/container"
	"github.com/swapyard/swapyard-api/internal/domain/repository"
	handlers "github.com/swapyard/swapyard-api/internal/interface/http"
	"github.com/swapyard/swapyard-api/internal/interface/middleware"
	"github.com/swapyard/swapyard-api/pkg/helpers"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	Users   repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, users repository.UserRepository, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Users: users, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	signInLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath())
	forgetPassLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath())
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath())

	rg.POST("/auth/sign-up", m.Handler.SignUp)
	rg.POST("/auth/sign-in", signInLimiter, m.Handler.SignIn)
	rg.POST("/auth/verify", m.Handler.VerifyEmail)
	rg.POST("/auth/refresh-token", refreshLimiter, m.Handler.Refresh)
	rg.POST("/auth/verify-pass-reset-token", m.Handler.CheckResetToken)
	rg.POST("/auth/forget-pass", forgetPassLimiter, m.Handler.ForgetPassword)
	rg.POST("/auth/reset-pass", m.Handler.ResetPassword)
	rg.GET("/auth/profile/:id", m.Handler.GetPublicProfile)

	auth := rg.Group("/auth")
	auth.Use(middleware.Auth(m.Users, m.JWT))
	{
		auth.GET("/verify-token", middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByUser()), m.Handler.ReissueVerification)
		auth.POST("/sign-out", m.Handler.SignOut)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PATCH("/update-profile", m.Handler.UpdateProfile)
		auth.PATCH("/update-avatar", m.Handler.UpdateAvatar)
	}
}
