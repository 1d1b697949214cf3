package handlers

import (
	"context"
	"time"

	"gosell/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports the state of the optional backing stores. A nil
// store is reported as "memory".
type HealthHandler struct {
	cache *cache.CacheService
	db    *gorm.DB
}

func NewHealthHandler(cacheService *cache.CacheService, db *gorm.DB) *HealthHandler {
	return &HealthHandler{cache: cacheService, db: db}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status := "ok"
	services := fiber.Map{"redis": "memory", "database": "memory"}

	if h.cache != nil {
		services["redis"] = "connected"
		if err := h.cache.HealthCheck(ctx); err != nil {
			services["redis"] = "unavailable"
			status = "degraded"
		}
	}
	if h.db != nil {
		services["database"] = "connected"
		if err := pingDB(ctx, h.db); err != nil {
			services["database"] = "unavailable"
			status = "degraded"
		}
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"version":  "1.0.0",
		"services": services,
	})
}

// CacheStats reports Redis lookup counters and pool usage.
func (h *HealthHandler) CacheStats(c *fiber.Ctx) error {
	if h.cache == nil {
		return c.JSON(fiber.Map{"backend": "memory"})
	}
	return c.JSON(fiber.Map{
		"backend": "redis",
		"stats":   h.cache.Stats(),
	})
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
