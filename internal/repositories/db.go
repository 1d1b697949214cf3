// Package repositories provides the sandbox server's storage: saved cards in
// PostgreSQL, issued tokens and request ids in Redis, with in-memory
// fallbacks for both.
package repositories

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gosell/internal/config"
	"gosell/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBConfig holds database connection pool configuration
type DBConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewDBConfig reads DATABASE_URL, or builds a DSN from the DB_* variables.
// The DSN is empty when neither is set.
func NewDBConfig() *DBConfig {
	dsn := config.GetEnv("DATABASE_URL", "")
	if dsn == "" && config.GetEnv("DB_HOST", "") != "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			config.GetEnv("DB_HOST", "localhost"),
			config.GetEnv("DB_USER", "postgres"),
			config.GetEnv("DB_PASSWORD", "postgres"),
			config.GetEnv("DB_NAME", "gosell"),
			config.GetEnv("DB_PORT", "5432"),
			config.GetEnv("DB_SSLMODE", "disable"),
		)
	}
	return &DBConfig{
		DSN:             dsn,
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	}
}

// Configured reports whether a database was configured at all.
func (c *DBConfig) Configured() bool {
	return c.DSN != ""
}

// OpenDB connects to PostgreSQL, applies the pool settings and migrates the
// saved card table.
func OpenDB(cfg *DBConfig) (*gorm.DB, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("database not configured")
	}

	// Ignore "record not found"; card lookups miss routinely.
	dbLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("PostgreSQL connected & migrations applied")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.CreditCard{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// ResetDatabase drops and recreates the sandbox tables.
func ResetDatabase(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&models.CreditCard{}); err != nil {
		return err
	}
	return Migrate(db)
}
