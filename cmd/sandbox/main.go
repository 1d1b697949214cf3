// Package main runs the sandbox tokenization server.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gosell/internal/config"
	"gosell/internal/crypto"
	tapErrors "gosell/internal/errors"
	"gosell/internal/middleware"
	"gosell/internal/repositories"
	"gosell/internal/repositories/cache"
	"gosell/internal/routes"
	creditcard "gosell/internal/services/credit-card"
	"gosell/internal/utils"
	"gosell/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	envErr := config.LoadEnv()

	logger := utils.NewLogger(config.GetEnv(config.EnvLogLevel, "info"), config.GetEnv(config.EnvLogFormat, "text"))
	if errors.Is(envErr, config.ErrNoEnvFile) {
		logger.Debug("no .env file, using process environment")
	} else if envErr != nil {
		logger.WithError(envErr).Fatal("failed to load environment")
	}

	secret := config.GetEnv(config.EnvSecretKey, "")
	if secret == "" {
		logger.Fatalf("%s must be set", config.EnvSecretKey)
	}

	privateKey, err := loadPrivateKey(logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to load sandbox private key")
	}

	var (
		cacheService *cache.CacheService
		tokens       = repositories.NewMemoryTokenStore()
		replay       = repositories.NewMemoryReplayGuard()
	)
	if config.GetEnv("REDIS_HOST", "") != "" {
		redisCfg := cache.NewRedisConfig()
		cacheService = cache.NewCacheService(cache.NewRedisClient(redisCfg), creditcard.DefaultTokenTTL)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cacheService.HealthCheck(ctx); err != nil {
			cancel()
			logger.WithError(err).Fatal("redis unavailable")
		}
		cancel()

		tokens = repositories.NewRedisTokenStore(cacheService)
		replay = repositories.NewRedisReplayGuard(cacheService)
		logger.WithField("addr", redisCfg.Addr()).Info("using redis token store")
	}

	var (
		db    *gorm.DB
		cards = repositories.NewMemoryCreditCardRepository()
	)
	if dbCfg := repositories.NewDBConfig(); dbCfg.Configured() {
		db, err = repositories.OpenDB(dbCfg)
		if err != nil {
			logger.WithError(err).Fatal("database unavailable")
		}
		cards = repositories.NewCreditCardRepository(db)
	}

	var tokenizer creditcard.Tokenizer = creditcard.NewTestCardTokenizer()
	if stripeKey := config.GetEnv("STRIPE_SECRET_KEY", ""); stripeKey != "" {
		tokenizer = creditcard.NewStripeTokenizer(stripeKey, nil)
		logger.Info("tokenizing cards with stripe")
	}

	pepper := config.GetEnv("SANDBOX_FINGERPRINT_PEPPER", "")
	if pepper == "" {
		pepper = utils.MustGenerateSecureCode()
		logger.Warn("SANDBOX_FINGERPRINT_PEPPER not set; fingerprints will change on restart")
	}

	cardService := creditcard.NewService(creditcard.Config{
		Tokenizer: tokenizer,
		Tokens:    tokens,
		Cards:     cards,
		Pepper:    []byte(pepper),
		TokenTTL:  config.GetDurationEnv("SANDBOX_TOKEN_TTL", creditcard.DefaultTokenTTL),
		Logger:    logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      "gosell-sandbox",
		UnescapePath: true,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Encryption-Scheme",
		AllowMethods: "GET,POST,DELETE",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/v2/tokens", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("SANDBOX_RATE_LIMIT", 60),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, tapErrors.ErrorCodeServiceUnavailable, "too many requests")
		},
	}))

	routes.SetupRoutes(app, routes.Deps{
		Auth:      middleware.NewRequestAuth(secret, replay, logger),
		Cards:     cardService,
		Decryptor: crypto.NewDecryptor(privateKey),
		Cache:     cacheService,
		DB:        db,
		Logger:    logger,
	})

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Warn("shutdown incomplete")
		}
	}()

	addr := ":" + config.GetEnv("PORT", "3000")
	logger.WithField("addr", addr).Info("sandbox listening")
	if err := app.Listen(addr); err != nil {
		logger.WithError(err).Error("server stopped")
	}

	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.WithError(err).Warn("failed to close database connection")
			}
		}
	}
	if cacheService != nil {
		if err := cacheService.Close(); err != nil {
			logger.WithError(err).Warn("failed to close redis connection")
		}
	}
}

// loadPrivateKey reads SANDBOX_PRIVATE_KEY, or generates a throwaway key and
// logs its public half so clients can be configured.
func loadPrivateKey(logger log.FieldLogger) (*rsa.PrivateKey, error) {
	if material := config.GetEnv("SANDBOX_PRIVATE_KEY", ""); material != "" {
		return crypto.ParsePrivateKey(material)
	}

	key, err := rsa.GenerateKey(rand.Reader, crypto.MinKeyBits)
	if err != nil {
		return nil, err
	}
	pub, err := crypto.NewDecryptor(key).PublicKey(crypto.SchemeRSAPKCS1)
	if err != nil {
		return nil, err
	}
	material, err := pub.MarshalPEM()
	if err != nil {
		return nil, err
	}
	logger.WithField("public_key", material).Warn("SANDBOX_PRIVATE_KEY not set; generated a temporary key")
	return key, nil
}
