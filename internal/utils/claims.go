package utils

import (
	"errors"

	"gosell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the fiber Locals key holding the verified request claims.
const ClaimsKey = "claims"

// GetRequestClaims extracts the request claims from the Fiber context.
// It returns an error if the claims are missing or of an invalid type.
func GetRequestClaims(c *fiber.Ctx) (*models.RequestClaims, error) {
	v := c.Locals(ClaimsKey)
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.RequestClaims)
	if !ok || claims == nil {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}
