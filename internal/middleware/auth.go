// Package middleware provides the sandbox's request authentication.
package middleware

import (
	"strings"
	"time"

	"gosell/internal/repositories"
	"gosell/internal/utils"
	"gosell/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// replayWindow covers a request token's validity plus clock skew.
const replayWindow = utils.RequestTokenTTL + time.Minute

// RequestAuth verifies the signed bearer assertion on every request and
// rejects an assertion that was already used.
type RequestAuth struct {
	secret string
	replay repositories.ReplayGuard
	logger log.FieldLogger
}

func NewRequestAuth(secret string, replay repositories.ReplayGuard, logger log.FieldLogger) *RequestAuth {
	if replay == nil {
		replay = repositories.NewMemoryReplayGuard()
	}
	if logger == nil {
		logger = utils.DiscardLogger()
	}
	return &RequestAuth{
		secret: secret,
		replay: replay,
		logger: logger,
	}
}

// Handler validates the bearer token and stores its claims in the request
// context.
func (m *RequestAuth) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseRequestToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.logger.WithError(err).WithField("path", c.Path()).Warn("request token rejected")
		return response.Unauthorized(c, "invalid token")
	}

	first, err := m.replay.FirstUse(c.UserContext(), claims.ID, replayWindow)
	if err != nil {
		m.logger.WithError(err).Error("replay check failed")
		return response.ServerError(c)
	}
	if !first {
		m.logger.WithField("request_id", claims.ID).Warn("replayed request token")
		return response.Unauthorized(c, "request token already used")
	}

	c.Locals(utils.ClaimsKey, claims)
	return c.Next()
}

// RequireScope rejects requests whose claims lack scope.
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetRequestClaims(c)
		if err != nil {
			return response.Unauthorized(c, "unauthorized")
		}
		if !claims.HasScope(scope) {
			return response.Forbidden(c, "insufficient scope: "+scope)
		}
		return c.Next()
	}
}
