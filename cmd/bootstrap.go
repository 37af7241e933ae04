package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rm-hull/godx"

	"github.com/rm-hull/heat-metadata-collector/internal"
	"github.com/rm-hull/heat-metadata-collector/internal/config"
)

// bootstrap loads the environment and returns the client configuration. Missing
// settings are not an error here: the collector reports them when it runs.
func bootstrap() (config.ClientConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	godx.GitVersion()
	godx.EnvironmentVars()
	godx.UserInfo()

	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, fmt.Errorf("failed to read configuration: %w", err)
	}
	return cfg, nil
}

func openRepository(dbPath string) (internal.SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := internal.Migrate(dbPath); err != nil {
		return nil, fmt.Errorf("failed to migrate SQL: %w", err)
	}

	db, err := internal.Connect(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return internal.NewSnapshotRepository(db), nil
}
