// Command seedcities loads cities from a JSON file into the configured city
// store.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/go-city-guide/app/logger"
	"github.com/FACorreiaa/go-city-guide/config"
	"github.com/FACorreiaa/go-city-guide/internal/api/city"
	"github.com/FACorreiaa/go-city-guide/internal/container"
)

func main() {
	file := flag.String("file", "data/cities.json", "JSON array of cities to load")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.Setup(os.Getenv("APP_ENV"), os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("Failed to open cities file", slog.String("file", *file), slog.Any("error", err))
		os.Exit(1)
	}
	defer f.Close()

	awsCfg, err := container.LoadAWSConfig(ctx, &cfg)
	if err != nil {
		logger.Error("Failed to load AWS config", slog.Any("error", err))
		os.Exit(1)
	}

	repo, pool, err := container.NewCityRepository(ctx, &cfg, awsCfg, logger)
	if err != nil {
		logger.Error("Failed to open city store", slog.Any("error", err))
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	n, err := city.Seed(ctx, repo, f, logger)
	if err != nil {
		logger.Error("Seeding stopped", slog.Int("saved", n), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cities seeded", slog.Int("count", n), slog.String("backend", cfg.CityStore.Backend))
}
