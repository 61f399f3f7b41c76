// Command memwatch publishes the resident memory of selected processes to
// CloudWatch as custom metrics.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/go-city-guide/app/logger"
	"github.com/FACorreiaa/go-city-guide/config"
	"github.com/FACorreiaa/go-city-guide/internal/memwatch"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.Setup(os.Getenv("APP_ENV"), os.Stdout)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hostname, err := os.Hostname()
	if err != nil {
		logger.Error("Failed to determine hostname", slog.Any("error", err))
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("Failed to load AWS config", slog.Any("error", err))
		os.Exit(1)
	}

	collector := memwatch.NewCollector(memwatch.SystemProcesses{}, cfg.Memwatch.Processes)
	publisher := memwatch.NewCloudWatchPublisher(cloudwatch.NewFromConfig(awsCfg), cfg.Memwatch.Namespace, hostname)
	watcher := memwatch.NewWatcher(collector, publisher, cfg.Memwatch.Interval, logger.With(slog.String("host", hostname)))

	logger.Info("Watching process memory",
		slog.Any("processes", cfg.Memwatch.Processes),
		slog.String("namespace", cfg.Memwatch.Namespace),
		slog.Duration("interval", cfg.Memwatch.Interval),
	)
	if err := watcher.Run(ctx); err != nil {
		logger.Error("Memory watcher stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Memory watcher stopped")
}
