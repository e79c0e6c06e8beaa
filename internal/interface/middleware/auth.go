package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/swapyard/swapyard-api/internal/domain/repository"
	"github.com/swapyard/swapyard-api/pkg/helpers"
	"github.com/swapyard/swapyard-api/pkg/response"
)

// Profile is the resolved caller identity attached to the request context by
// the auth gate. Handlers read it instead of re-parsing the token.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Verified  bool   `json:"verified"`
	AvatarURL string `json:"avatar,omitempty"`
}

const ctxProfileKey = "authProfile"

// CurrentUser returns the caller profile set by Auth.
func CurrentUser(c *gin.Context) (Profile, bool) {
	v, ok := c.Get(ctxProfileKey)
	if !ok {
		return Profile{}, false
	}
	p, ok := v.(Profile)
	return p, ok
}

// Auth validates the bearer access token and resolves the caller before any
// protected handler runs. An expired token answers 401 so clients run their
// refresh flow; anything else answers 403.
func Auth(users repository.UserRepository, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			response.Error(c, http.StatusForbidden, "unauthorized request", nil)
			return
		}
		userID, err := jwt.Verify(token)
		if err != nil {
			if errors.Is(err, helpers.ErrTokenExpired) {
				response.Error(c, http.StatusUnauthorized, "token expired", nil)
				return
			}
			response.Error(c, http.StatusForbidden, "unauthorized request", nil)
			return
		}
		u, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, http.StatusForbidden, "unauthorized request", nil)
			return
		}
		c.Set(ctxProfileKey, Profile{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Verified:  u.Verified,
			AvatarURL: u.AvatarURL,
		})
		c.Next()
	}
}
