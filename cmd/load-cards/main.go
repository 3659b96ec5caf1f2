package main

import (
	"context"
	"flag"
	"log"

	"czar-party/internal/config"
	"czar-party/internal/db"
	"czar-party/internal/game"
	"czar-party/internal/logger"
	"czar-party/internal/store"
)

func main() {
	filePath := flag.String("file", "cards.csv", "path to question cards csv (category,difficulty,text)")
	migrate := flag.Bool("migrate", false, "run auto-migrations before loading")
	flag.Parse()

	if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logg, err := logger.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	conn, err := db.Open(cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 2})
	if err != nil {
		logg.Fatalw("database connection failed", "error", err)
	}
	if *migrate {
		if err := db.Migrate(conn); err != nil {
			logg.Fatalw("database migration failed", "error", err)
		}
	}

	records, err := db.ReadCardsCSV(*filePath)
	if err != nil {
		logg.Fatalw("failed to read cards", "file", *filePath, "error", err)
	}

	svc := game.New(store.NewGorm(conn), nil, game.Options{Logger: logg})
	inserted, err := svc.Cards.Import(context.Background(), records)
	if err != nil {
		logg.Fatalw("failed to import cards", "inserted", inserted, "error", err)
	}
	logg.Infow("loaded question cards", "file", *filePath, "read", len(records), "inserted", inserted, "skipped", len(records)-inserted)
}
