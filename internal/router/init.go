package router

import (
	"github.com/swapyard/swapyard-api/internal/application"
	"github.com/swapyard/swapyard-api/internal/container"
	pginfra "github.com/swapyard/swapyard-api/internal/infrastructure/postgres"
	"github.com/swapyard/swapyard-api/internal/infrastructure/redisstore"
	handlers "github.com/swapyard/swapyard-api/internal/interface/http"
	"github.com/swapyard/swapyard-api/internal/router/modules"
)

// InitModules wires all feature modules against the container singletons and
// registers them with the router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	users := pginfra.NewUserRepository(container.GetPGPool())
	products := pginfra.NewProductRepository(container.GetPGPool())
	tokens := redisstore.NewTokenStore(container.GetRedis(), cfg.VerifyTokenTTL, cfg.ResetTokenTTL)

	authSvc := application.NewAuthService(
		users,
		tokens,
		container.GetJWT(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRabbitPub(),
		container.GetLogger(),
		cfg,
	)
	productSvc := application.NewProductService(
		products,
		users,
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetLogger(),
		container.GetES(),
		cfg.ESProductsIndex,
	)

	authHandler := handlers.NewAuthHandler(authSvc, container.GetLogger())
	productHandler := handlers.NewProductHandler(productSvc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, users, container.GetJWT()))
	r.Add(modules.NewProductModule(productHandler, users, container.GetJWT()))
}
