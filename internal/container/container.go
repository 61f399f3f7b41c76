package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-city-guide/app/db"
	appMiddleware "github.com/FACorreiaa/go-city-guide/app/middleware"
	"github.com/FACorreiaa/go-city-guide/app/observability/metrics"
	"github.com/FACorreiaa/go-city-guide/app/views"
	"github.com/FACorreiaa/go-city-guide/config"
	"github.com/FACorreiaa/go-city-guide/internal/api/city"
	"github.com/FACorreiaa/go-city-guide/internal/api/diagnostics"
	generativeAI "github.com/FACorreiaa/go-city-guide/internal/api/generative_ai"
	knowledgebase "github.com/FACorreiaa/go-city-guide/internal/api/knowledge_base"
	"github.com/FACorreiaa/go-city-guide/internal/api/suggestions"
	"github.com/FACorreiaa/go-city-guide/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config               *config.Config
	Logger               *slog.Logger
	Pool                 *pgxpool.Pool
	CityHandler          *city.Handler
	SuggestionsHandler   *suggestions.Handler
	KnowledgeBaseHandler *knowledgebase.Handler
	DiagnosticsHandler   *diagnostics.Handler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	appMetrics, err := metrics.InitAppMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metric instruments: %w", err)
	}

	c := &Container{Config: cfg, Logger: logger}

	cityRepo, pool, err := NewCityRepository(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}
	c.Pool = pool
	cityService := city.NewCityService(cityRepo, appMetrics, logger)

	renderer, err := views.NewRenderer(logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	c.CityHandler = city.NewCityHandler(cityService, renderer, knowledgebase.Prompts, logger)

	bedrockClient := generativeAI.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.Inference.ModelID)
	var generator generativeAI.TextGenerator = bedrockClient
	if cfg.Inference.Provider == "gemini" {
		generator, err = generativeAI.NewGeminiClient(ctx, cfg.Inference.GeminiAPIKey, cfg.Inference.GeminiModel)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
	}
	logger.Info("Inference provider selected", slog.String("provider", generator.Provider()))
	suggestionsService := suggestions.NewServiceImpl(generator, appMetrics, logger)
	c.SuggestionsHandler = suggestions.NewHandler(suggestionsService, cityService, logger)

	if cfg.KnowledgeBase.ID == "" {
		logger.Warn("knowledgeBase.id is not set; review questions will fail")
	}
	modelArn, derived := cfg.KnowledgeBaseModelArn()
	if derived {
		logger.Warn("knowledgeBase.modelArn is not set; using the foundation-model ARN of the inference model",
			slog.String("model_arn", modelArn))
	}
	retriever := knowledgebase.NewBedrockRetriever(bedrockagentruntime.NewFromConfig(awsCfg), cfg.KnowledgeBase.ID, modelArn)
	kbService := knowledgebase.NewServiceImpl(retriever, knowledgebase.Options{
		CacheTTL:  cfg.KnowledgeBase.CacheTTL,
		RateLimit: cfg.KnowledgeBase.RateLimit,
		Burst:     cfg.KnowledgeBase.Burst,
	}, appMetrics, logger)
	c.KnowledgeBaseHandler = knowledgebase.NewHandler(kbService, cityService, logger)

	catalog := generativeAI.NewBedrockCatalog(bedrock.NewFromConfig(awsCfg))
	c.DiagnosticsHandler = diagnostics.NewHandler(catalog, bedrockClient, logger)

	return c, nil
}

// LoadAWSConfig resolves credentials the SDK's default way for the configured region.
func LoadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewCityRepository opens the city store selected by cityStore.backend. The
// pool is nil unless the postgres backend is used; the caller closes it.
func NewCityRepository(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) (city.Repository, *pgxpool.Pool, error) {
	switch cfg.CityStore.Backend {
	case "postgres":
		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
			return nil, nil, err
		}
		pool, err := database.Init(ctx, dbConfig, logger)
		if err != nil {
			return nil, nil, err
		}
		if !database.WaitForDB(ctx, pool, logger) {
			pool.Close()
			return nil, nil, errors.New("database not ready")
		}
		return city.NewPostgresRepository(pool, logger), pool, nil
	case "dynamodb", "":
		return city.NewDynamoDBRepository(dynamodb.NewFromConfig(awsCfg), cfg.CityStore.Table, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown city store backend %q", cfg.CityStore.Backend)
	}
}

// RouterConfig wires the handlers into the HTTP routes.
func (c *Container) RouterConfig() *router.Config {
	return &router.Config{
		CityHandler:           c.CityHandler,
		SuggestionsHandler:    c.SuggestionsHandler,
		KnowledgeBaseHandler:  c.KnowledgeBaseHandler,
		DiagnosticsHandler:    c.DiagnosticsHandler,
		DiagnosticsMiddleware: appMiddleware.Authenticate([]byte(c.Config.Diagnostics.JWTSecret), c.Logger),
		AllowedOrigins:        c.Config.Server.AllowedOrigins,
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
		c.Logger.Info("Database connection pool closed")
	}
}
