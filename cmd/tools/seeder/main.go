package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-inventaris/internal/obs"
)

const upsertProduct = `
INSERT INTO products (code, name, category, price, stock, min_stock, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (code) DO UPDATE SET
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    min_stock = EXCLUDED.min_stock,
    active = EXCLUDED.active,
    updated_at = now()`

func main() {
	path := flag.String("file", "cmd/tools/seeder/fixtures.yaml", "YAML fixture file")
	dryRun := flag.Bool("dry-run", false, "validate fixtures without touching the database")
	flag.Parse()

	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()
	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, relying on environment variables")
	}

	f, err := os.Open(*path)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *path).Msg("open fixtures")
	}
	set, err := loadFixtures(f)
	_ = f.Close()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid fixtures")
	}
	logger.Info().Int("categories", len(set.Categories)).Int("products", len(set.Products)).Msg("fixtures loaded")
	if *dryRun {
		return
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	if err := seedProducts(ctx, db, set, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed products")
	}
	logger.Info().Msg("seeding completed")
}

func seedProducts(ctx context.Context, db *sql.DB, set fixtures, logger zerolog.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertProduct)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range set.Products {
		if _, err := stmt.ExecContext(ctx, p.Code, p.Name, p.Category, p.Price, p.Stock, p.MinStock, p.Active); err != nil {
			return err
		}
		logger.Debug().Str("code", p.Code).Msg("product upserted")
	}
	return tx.Commit()
}
