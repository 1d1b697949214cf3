package handlers

import (
	"errors"

	creditcard "gosell/internal/services/credit-card"
	"gosell/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// respondError writes service failures with their own status and details.
// Anything else is logged and reported as an internal error.
func respondError(c *fiber.Ctx, logger log.FieldLogger, err error) error {
	var svcErr *creditcard.Error
	if errors.As(err, &svcErr) {
		return response.Errors(c, svcErr.Status, svcErr.Details...)
	}
	logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	return response.ServerError(c)
}
