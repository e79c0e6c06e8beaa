package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/swapyard/swapyard-api/internal/domain/repository"
	handlers "github.com/swapyard/swapyard-api/internal/interface/http"
	"github.com/swapyard/swapyard-api/internal/interface/middleware"
	"github.com/swapyard/swapyard-api/pkg/helpers"
)

type ProductModule struct {
	Handler *handlers.ProductHandler
	Users   repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewProductModule(h *handlers.ProductHandler, users repository.UserRepository, jwt *helpers.JWTManager) *ProductModule {
	return &ProductModule{Handler: h, Users: users, JWT: jwt}
}

func (m *ProductModule) Register(rg *gin.RouterGroup) {
	rg.GET("/product/detail/:id", m.Handler.Detail)
	rg.GET("/product/by-category/:category", m.Handler.ByCategory)
	rg.GET("/product/latest", m.Handler.Latest)
	rg.GET("/product/search", m.Handler.Search)

	auth := rg.Group("/product")
	auth.Use(middleware.Auth(m.Users, m.JWT))
	{
		auth.POST("/list", m.Handler.Create)
		auth.GET("/listings", m.Handler.Listings)
		auth.PATCH("/:id", m.Handler.Update)
		auth.DELETE("/:id", m.Handler.Delete)
		auth.DELETE("/:id/image/*imageID", m.Handler.RemoveImage)
	}
}
