package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rosterchat/internal/app/ai"
	appControllers "rosterchat/internal/app/controllers"
	appMigrations "rosterchat/internal/app/migrations"
	"rosterchat/internal/app/roster"
	appRoutes "rosterchat/internal/app/routes"
	appServices "rosterchat/internal/app/services"
	"rosterchat/internal/app/store"
	"rosterchat/internal/config"
	"rosterchat/internal/db"
	appMiddleware "rosterchat/internal/middleware"
	"rosterchat/internal/pkg/logger"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store            store.CourseStore
	RosterClient     *roster.Client
	AIClient         ai.Client
	AnswerService    *appServices.AnswerService
	IngestionService *appServices.IngestionService
	AskController    *appControllers.AskController
	ClassController  *appControllers.ClassController
	AdminController  *appControllers.AdminController
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
// It is only called when the configured store driver is "postgres".
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return database, nil
}

// BuildDependencies initializes the store, clients, services, and controllers.
// database may be nil when the memory store driver is configured.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	switch strings.ToLower(cfg.Database.Driver) {
	case "postgres":
		if database == nil {
			return nil, fmt.Errorf("postgres driver configured but no database connection provided")
		}
		deps.Store = store.NewPostgresStore(database)
		lgr.Info().Msg("Using Postgres course store")
	default:
		deps.Store = store.NewMemoryStore()
		lgr.Info().Msg("Using in-memory course store")
	}

	deps.RosterClient = roster.NewClient(roster.ClientConfig{
		BaseURL:      cfg.Roster.BaseURL,
		UserAgent:    cfg.Roster.UserAgent,
		RateInterval: cfg.RosterRateInterval(),
		MaxRetries:   cfg.Roster.MaxRetries,
		RetryDelay:   cfg.RosterRetryDelay(),
		Timeout:      cfg.RosterTimeout(),
	}, lgr)

	aiClient, err := ai.NewAnthropicClient(ai.Config{
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.Model,
		MaxTokens: int64(cfg.AI.MaxTokens),
	}, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize AI client")
		return nil, fmt.Errorf("failed to initialize AI client: %w", err)
	}
	deps.AIClient = aiClient

	deps.AnswerService = appServices.NewAnswerService(deps.Store, deps.AIClient, cfg.Roster.BrowseURL, lgr)
	deps.IngestionService = appServices.NewIngestionService(deps.Store, deps.RosterClient, lgr)

	deps.AskController = appControllers.NewAskController(deps.AnswerService)
	deps.ClassController = appControllers.NewClassController(deps.Store)
	deps.AdminController = appControllers.NewAdminController(deps.IngestionService, deps.Store)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr))

	appRoutes.SetupRouter(router,
		deps.AskController,
		deps.ClassController,
		deps.AdminController,
	)

	return router
}
