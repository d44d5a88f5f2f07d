package main

import (
	"context"
	"os"
	"strings"

	"github.com/nimasrn/momo-ledger/internal/config"
	"github.com/nimasrn/momo-ledger/internal/dataset"
	"github.com/nimasrn/momo-ledger/internal/repository"
	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/nimasrn/momo-ledger/pkg/pg"
)

// main.go --env=.env --dir=./migrations --import=data/transactions.json
func main() {
	defer logger.Sync()

	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	if err := logger.Configure(cfg.LogEnv, cfg.LogLevel); err != nil {
		logger.Warn("invalid log settings, keeping defaults", "error", err)
	}

	pgConf := pg.Config{
		User:     cfg.PostgresWriteUser,
		Host:     cfg.PostgresWriteHost,
		Port:     cfg.PostgresWritePort,
		Password: cfg.PostgresWritePassword,
		Database: cfg.PostgresWriteDatabase,
	}
	err = pg.Migrate(pgConf, getMigrationPath())
	if err != nil {
		logger.Error("migration: error running migrations", "error", err)
		return
	}

	importPath := argValue("--import=")
	if importPath == "" {
		return
	}

	txs, err := dataset.FileSource{Path: importPath}.Load(context.Background())
	if err != nil {
		logger.Error("import: failed to read dataset", "error", err)
		return
	}

	db, err := pg.CreateReadWrite(pgConf, pgConf, false)
	if err != nil {
		logger.Error("import: failed connecting to pg", "error", err)
		return
	}
	defer db.Close()

	written, err := repository.NewDatasetRepository(db).Import(context.Background(), txs)
	if err != nil {
		logger.Error("import: failed writing dataset", "error", err)
		return
	}
	logger.Info("import: dataset written", "path", importPath, "records", len(txs), "rows", written)
}

func argValue(prefix string) string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimPrefix(v, prefix)
		}
	}
	return ""
}

func getEnvPath() string {
	p := argValue("--env=")
	if p == "" {
		p = ".env"
	}
	if _, err := os.Stat(p); err != nil {
		logger.Warn("env file not found, reading the environment only", "path", p)
		return ""
	}
	return p
}

func getMigrationPath() string {
	p := argValue("--dir=")
	if p == "" {
		p = "./migrations"
	}
	if _, err := os.Stat(p); err != nil {
		logger.Error("failed to open the migrations directory", "path", p, "error", err)
	}
	return p
}
