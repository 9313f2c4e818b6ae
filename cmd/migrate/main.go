package main

import (
	"context"
	"os"

	"github.com/nimasrn/baki-ledger/internal/config"
	"github.com/nimasrn/baki-ledger/pkg/db"
	"github.com/nimasrn/baki-ledger/pkg/logger"
)

// main.go --env=./.env
func main() {
	err := run()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run() error {
	err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	store, err := db.Open(config.Get().DBConfig())
	if err != nil {
		logger.Error("migration: failed opening store", "error", err)
		return err
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		logger.Error("migration: error running migrations", "error", err)
		return err
	}
	logger.Info("migration: store is up to date", "driver", store.Driver())
	return nil
}
