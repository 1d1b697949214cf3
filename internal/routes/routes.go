// Package routes wires the sandbox API onto a fiber app.
package routes

import (
	"gosell/internal/crypto"
	"gosell/internal/handlers"
	"gosell/internal/middleware"
	"gosell/internal/models"
	"gosell/internal/repositories/cache"
	creditcard "gosell/internal/services/credit-card"
	"gosell/internal/utils"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes need. Cache and DB are optional
// and only feed the health endpoints.
type Deps struct {
	Auth      *middleware.RequestAuth
	Cards     *creditcard.Service
	Decryptor *crypto.Decryptor
	Cache     *cache.CacheService
	DB        *gorm.DB
	Logger    log.FieldLogger
}

// SetupRoutes configures all sandbox routes.
func SetupRoutes(app *fiber.App, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = utils.DiscardLogger()
	}

	healthHandler := handlers.NewHealthHandler(deps.Cache, deps.DB)
	tokenHandler := handlers.NewTokenHandler(deps.Cards, deps.Decryptor, logger)
	cardHandler := handlers.NewCreditCardHandler(deps.Cards, logger)

	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/health/cache", healthHandler.CacheStats)

	api := app.Group("/v2", deps.Auth.Handler)

	api.Post("/tokens", middleware.RequireScope(models.ScopeTokensWrite), tokenHandler.CreateToken)

	cards := api.Group("/card")
	cards.Get("/:customer", middleware.RequireScope(models.ScopeCardsRead), cardHandler.GetCards)
	cards.Post("/:customer", middleware.RequireScope(models.ScopeCardsWrite), cardHandler.SaveCard)
	cards.Delete("/:customer/:card", middleware.RequireScope(models.ScopeCardsWrite), cardHandler.DeleteCard)
}
