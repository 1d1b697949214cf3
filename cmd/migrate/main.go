// Package main creates or resets the sandbox's saved card table.
package main

import (
	"errors"
	"fmt"
	"os"

	"gosell/internal/config"
	"gosell/internal/repositories"

	"github.com/ardanlabs/conf"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Reset bool `conf:"default:false,help:drop the tables before migrating"`
}

func main() {
	var cfg Config
	help, err := conf.ParseOSArgs("MIGRATE", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return
		}
		log.Fatalf("parsing config: %v", err)
	}

	if err := config.LoadEnv(); err != nil && !errors.Is(err, config.ErrNoEnvFile) {
		log.WithError(err).Fatal("failed to load environment")
	}

	dbCfg := repositories.NewDBConfig()
	if !dbCfg.Configured() {
		fmt.Fprintln(os.Stderr, "DATABASE_URL or DB_HOST must be set in environment")
		os.Exit(1)
	}

	db, err := repositories.OpenDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Failed to close PostgreSQL connection: %v", err)
			}
		}
	}()

	if cfg.Reset {
		if err := repositories.ResetDatabase(db); err != nil {
			log.Fatalf("Failed to reset database: %v", err)
		}
		log.Println("Saved card table reset")
		return
	}
	log.Println("Migrations applied")
}
