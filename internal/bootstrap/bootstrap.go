package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/unievents/internal/app/controllers"
	appMigrations "github.com/yigit/unievents/internal/app/migrations"
	"github.com/yigit/unievents/internal/app/models/dto"
	appRepos "github.com/yigit/unievents/internal/app/repositories"
	appRoutes "github.com/yigit/unievents/internal/app/routes"
	appServices "github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/config"
	"github.com/yigit/unievents/internal/db"
	"github.com/yigit/unievents/internal/jobs"
	appMiddleware "github.com/yigit/unievents/internal/middleware"
	pkgAuth "github.com/yigit/unievents/internal/pkg/auth"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/email"
	"github.com/yigit/unievents/internal/pkg/filestorage"
	"github.com/yigit/unievents/internal/pkg/helpers"
	"github.com/yigit/unievents/internal/pkg/logger"
	"github.com/yigit/unievents/internal/pkg/metrics"
	"github.com/yigit/unievents/internal/pkg/sms"
	"github.com/yigit/unievents/internal/pkg/validation"
	"github.com/yigit/unievents/internal/pkg/websocket"
	"github.com/yigit/unievents/migrations"
)

// DefaultConfigPath is used when no --config flag is given
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Cache          *cache.Store
	JWTService     *pkgAuth.JWTService
	FileStorage    *filestorage.LocalStorage
	Hub            *websocket.Hub
	JobClient      *river.Client[pgx.Tx] // nil when background jobs are disabled
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	RateLimiters   appRoutes.RateLimiters
	Pool           *pgxpool.Pool
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database.Pool, nil
}

// RunMigrations applies the schema migrations and, when background jobs are
// enabled, River's own tables. A migrations directory on disk wins over the
// copy embedded in the binary.
func RunMigrations(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	dir := cfg.Database.MigrationsDir
	if info, err := os.Stat(dir); dir != "" && err == nil && info.IsDir() {
		lgr.Info().Str("path", dir).Msg("Using migrations directory")
		if err := migrator.MigrateFromDirectory(ctx, dir); err != nil {
			lgr.Error().Err(err).Msg("Database migration error")
			return fmt.Errorf("database migrations failed: %w", err)
		}
	} else {
		lgr.Info().Msg("Using embedded migrations")
		if err := migrator.MigrateFromFS(ctx, migrations.FS); err != nil {
			lgr.Error().Err(err).Msg("Database migration error")
			return fmt.Errorf("database migrations failed: %w", err)
		}
	}

	if cfg.Jobs.Enabled {
		if err := jobs.Migrate(ctx, dbPool); err != nil {
			lgr.Error().Err(err).Msg("River migration error")
			return err
		}
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Pool: dbPool, Logger: lgr}

	if err := validation.RegisterWithGin(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.Cache = cache.New(
		helpers.ParseDuration(cfg.Cache.DefaultTTL, time.Hour),
		helpers.ParseDuration(cfg.Cache.CleanupInterval, 10*time.Minute),
	)

	// Uploaded files are served by the static /uploads route
	var err error
	baseURL := strings.TrimRight(cfg.Server.BaseURL, "/")
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, baseURL+"/uploads")
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	// Email: delivered by the River worker when jobs are on, inline otherwise
	var mailSender email.Sender = email.NewSender(email.SenderConfig{
		Provider:     cfg.Email.Provider,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		SMTPUseTLS:   cfg.Email.SMTPUseTLS,
		ResendAPIKey: cfg.Email.ResendAPIKey,
	}, lgr)

	if cfg.Jobs.Enabled {
		deps.JobClient, err = jobs.NewClient(dbPool, jobs.Dependencies{
			Sender:       mailSender,
			TokenCleaner: deps.Repos.TokenRepository,
			Logger:       logger.Slog("jobs"),
		}, cfg.Jobs.MaxWorkers)
		if err != nil {
			return nil, err
		}
		mailSender = jobs.NewEmailQueue(deps.JobClient)
	}

	otpTTL := helpers.ParseDuration(cfg.OTP.TTL, 10*time.Minute)
	mailer, err := email.NewMailer(mailSender, cfg.Email.Provider, baseURL, otpTTL, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	smsSender := sms.NewSender(sms.Config{
		Enabled:    cfg.SMS.Enabled,
		AccountSID: cfg.SMS.TwilioAccountSID,
		AuthToken:  cfg.SMS.TwilioAuthToken,
		FromNumber: cfg.SMS.FromNumber,
	}, lgr)

	deps.Hub = websocket.NewHub(lgr)

	// Initialize services
	r := deps.Repos
	otp := appServices.NewOTPService(deps.Cache, otpTTL, lgr)
	notificationService := appServices.NewNotificationService(
		r.NotificationRepository, r.UserRepository, r.EventRepository, r.RegistrationRepository,
		deps.Hub, deps.Cache, lgr,
	)
	authService := appServices.NewAuthService(r.UserRepository, r.TokenRepository, otp, mailer, smsSender, deps.JWTService, lgr)
	userService := appServices.NewUserService(r.UserRepository, r.TokenRepository, otp, mailer, deps.Cache, lgr)
	eventService := appServices.NewEventService(
		r.EventRepository, r.RegistrationRepository, r.UserRepository,
		notificationService, deps.FileStorage, deps.Cache, baseURL, lgr,
	)
	registrationService := appServices.NewRegistrationService(
		r.RegistrationRepository, r.EventRepository, r.UserRepository,
		notificationService, mailer, deps.Cache, lgr,
	)
	attendanceService := appServices.NewAttendanceService(
		r.AttendanceRepository, r.EventRepository, r.RegistrationRepository, r.UserRepository,
		notificationService, deps.Cache, lgr,
	)
	certificateService := appServices.NewCertificateService(
		r.CertificateRepository, r.AttendanceRepository, r.EventRepository, r.UserRepository,
		notificationService, mailer, deps.Cache, lgr,
	)
	clubService := appServices.NewClubService(r.ClubRepository, r.UserRepository, notificationService, deps.FileStorage, deps.Cache, lgr)
	busService := appServices.NewBusService(r.BusRepository, r.EventRepository, notificationService, lgr)
	feedbackService := appServices.NewFeedbackService(r.FeedbackRepository, r.AttendanceRepository, r.EventRepository, deps.Cache, lgr)
	contactService := appServices.NewContactService(r.ContactRepository, lgr)
	dashboardService := appServices.NewDashboardService(
		r.UserRepository, r.EventRepository, r.RegistrationRepository, r.AttendanceRepository,
		r.CertificateRepository, r.ClubRepository, r.NotificationRepository, deps.Cache, lgr,
	)
	reportService := appServices.NewReportService(r.ReportRepository, r.EventRepository, deps.Cache, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, r.UserRepository)

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(authService, lgr),
		User:         appControllers.NewUserController(userService, dashboardService, lgr),
		AdminUser:    appControllers.NewAdminUserController(userService, lgr),
		Event:        appControllers.NewEventController(eventService, lgr),
		Registration: appControllers.NewRegistrationController(registrationService, lgr),
		Attendance:   appControllers.NewAttendanceController(attendanceService, lgr),
		Certificate:  appControllers.NewCertificateController(certificateService, lgr),
		Club:         appControllers.NewClubController(clubService, lgr),
		Bus:          appControllers.NewBusController(busService, lgr),
		Notification: appControllers.NewNotificationController(notificationService, lgr),
		Feedback:     appControllers.NewFeedbackController(feedbackService, lgr),
		Contact:      appControllers.NewContactController(contactService, lgr),
		Report:       appControllers.NewReportController(reportService, lgr),
		WebSocket:    websocket.NewHandler(deps.Hub, lgr).HandleConnection,
	}

	if cfg.RateLimit.Enabled {
		deps.RateLimiters = appRoutes.RateLimiters{
			Auth:    appMiddleware.NewRateLimiter(appMiddleware.TierAuth, cfg.RateLimit.Auth, 15*time.Minute),
			Contact: appMiddleware.NewRateLimiter(appMiddleware.TierContact, cfg.RateLimit.Contact, time.Hour),
			Public:  appMiddleware.NewRateLimiter(appMiddleware.TierPublic, cfg.RateLimit.Public, time.Minute),
		}
	}

	return deps, nil
}

// StartBackground runs the websocket hub, the rate limiter sweepers and the
// River client until ctx is cancelled.
func (d *Dependencies) StartBackground(ctx context.Context) error {
	go d.Hub.Run(ctx)

	for _, rl := range []*appMiddleware.RateLimiter{d.RateLimiters.Auth, d.RateLimiters.Contact, d.RateLimiters.Public} {
		if rl != nil {
			go rl.Cleanup(ctx, 10*time.Minute)
		}
	}

	if d.JobClient != nil {
		if err := d.JobClient.Start(ctx); err != nil {
			return fmt.Errorf("failed to start job client: %w", err)
		}
		d.Logger.Info().Msg("Background job client started")
	}
	return nil
}

// StopBackground waits for running jobs to finish.
func (d *Dependencies) StopBackground(ctx context.Context) error {
	if d.JobClient == nil {
		return nil
	}
	if err := d.JobClient.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to stop job client: %w", err)
	}
	return nil
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
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr))
	if cfg.Metrics.Enabled {
		router.Use(appMiddleware.Metrics())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}

	appRoutes.SetupSwagger(router, strings.TrimPrefix(strings.TrimPrefix(cfg.Server.BaseURL, "https://"), "http://"))

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.RateLimiters)

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := deps.Pool.Ping(ctx); err != nil {
			lgr.Warn().Err(err).Msg("Health check: database unreachable")
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unavailable")
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(errorDetail))
			return
		}
		c.JSON(http.StatusOK, dto.NewAPIResponse(gin.H{"status": "ok"}))
	})

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
