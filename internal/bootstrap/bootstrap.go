package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appAuth "github.com/yigit/campuslink/internal/app/auth"
	appControllers "github.com/yigit/campuslink/internal/app/controllers"
	appMigrations "github.com/yigit/campuslink/internal/app/migrations"
	appRepos "github.com/yigit/campuslink/internal/app/repositories"
	appRoutes "github.com/yigit/campuslink/internal/app/routes"
	appServices "github.com/yigit/campuslink/internal/app/services"
	"github.com/yigit/campuslink/internal/config"
	"github.com/yigit/campuslink/internal/db"
	appMiddleware "github.com/yigit/campuslink/internal/middleware"
	pkgAuth "github.com/yigit/campuslink/internal/pkg/auth"
	"github.com/yigit/campuslink/internal/pkg/helpers"
	"github.com/yigit/campuslink/internal/pkg/logger"
	"github.com/yigit/campuslink/internal/pkg/metrics"
	"github.com/yigit/campuslink/internal/pkg/realtime"
	"github.com/yigit/campuslink/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	ConversationService appServices.ConversationService
	MessageService      appServices.MessageService
	NotificationService appServices.NotificationService
	AssignmentService   appServices.AssignmentService
	Controllers         appRoutes.Controllers
	AuthMiddleware      *appMiddleware.AuthMiddleware
	Repos               *appRepos.Repositories
	JWTService          *pkgAuth.JWTService
	AuthzService        *appAuth.AuthorizationService
	Broker              realtime.Broker
	Hub                 *realtime.Hub
	SocketHandler       *realtime.Handler
	Logger              zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))

	lgr := log.Logger
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	dbPool, err := db.Connect(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	metrics.RegisterPoolStats(dbPool.Stat)
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := appMigrations.NewMigrator(dbPool).Up(migrateCtx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if cfg.Database.Seed {
		if cfg.IsProduction() {
			lgr.Warn().Msg("Ignoring database seed in production mode")
		} else if err := seed.CreateDevelopmentData(ctx, dbPool, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create development data, proceeding anyway...")
		}
	}

	return dbPool, nil
}

// BuildDependencies initializes repositories, the realtime hub, services and controllers.
// The hub runs until ctx is cancelled.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenIssuer: cfg.JWT.Issuer,
	})

	broker, err := realtime.NewBroker(cfg.Realtime.BrokerURL, cfg.Realtime.Channel, logger.Component("broker"))
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize realtime broker")
		return nil, fmt.Errorf("failed to initialize realtime broker: %w", err)
	}
	deps.Broker = broker

	deps.Hub = realtime.NewHub(broker, realtime.Options{
		AuthTimeout:    helpers.DurationSetting("realtime.auth_timeout", cfg.Realtime.AuthTimeout, 10*time.Second),
		SendBuffer:     cfg.Realtime.SendBuffer,
		MaxMessageSize: cfg.Realtime.MaxMessageSize,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger.Component("hub"))
	if err := deps.Hub.Start(ctx); err != nil {
		_ = broker.Close()
		return nil, err
	}

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.CourseRepository)

	deps.NotificationService = appServices.NewNotificationService(
		deps.Repos.NotificationRepository,
		deps.Repos.CourseRepository,
		deps.AuthzService,
		deps.Hub,
		logger.Component("notifications"),
	)
	deps.ConversationService = appServices.NewConversationService(
		deps.Repos.ConversationRepository,
		deps.Repos.UserRepository,
		deps.Hub,
		logger.Component("conversations"),
	)
	deps.MessageService = appServices.NewMessageService(
		deps.Repos.MessageRepository,
		deps.Repos.ConversationRepository,
		deps.Repos.UserRepository,
		deps.NotificationService,
		deps.Hub,
		logger.Component("messages"),
	)
	deps.AssignmentService = appServices.NewAssignmentService(
		deps.Repos.AssignmentRepository,
		deps.Repos.CourseRepository,
		deps.AuthzService,
		deps.NotificationService,
		logger.Component("assignments"),
	)

	socketRouter := realtime.NewRouter(deps.Hub, deps.JWTService, deps.ConversationService, logger.Component("socket"))
	deps.SocketHandler = realtime.NewHandler(deps.Hub, socketRouter, logger.Component("socket"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Conversation: appControllers.NewConversationController(deps.ConversationService),
		Message:      appControllers.NewMessageController(deps.MessageService),
		Notification: appControllers.NewNotificationController(deps.NotificationService),
		Assignment:   appControllers.NewAssignmentController(deps.AssignmentService),
		Health:       appControllers.NewHealthController(dbPool, deps.Hub),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidation(); err != nil {
		lgr.Error().Err(err).Msg("Failed to register validation rules")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(logger.Component("http")))
	router.Use(appMiddleware.Metrics())
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.SocketHandler)

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	c.MaxAge = 12 * time.Hour

	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
