package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobbridge_backend/database"
	"jobbridge_backend/internal/cache"
	"jobbridge_backend/internal/config"
	"jobbridge_backend/internal/dispatch"
	"jobbridge_backend/internal/email"
	"jobbridge_backend/internal/handlers"
	"jobbridge_backend/internal/logger"
	"jobbridge_backend/internal/middleware"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/internal/routes"
	"jobbridge_backend/internal/services"
	"jobbridge_backend/internal/validator"
	"jobbridge_backend/internal/workers"
)

const shutdownTimeout = 10 * time.Second

func Run() {
	cfg := config.GetConfig()

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}
	logger.Info("Database connected and migrated")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := buildDependencies(cfg, db)
	defer deps.planCache.Stop()

	deps.dispatcher.Start()
	defer deps.dispatcher.Stop(shutdownTimeout)

	subscriptionWorker := workers.NewSubscriptionWorker(
		deps.subscriptionRepo, deps.subscriptionService, cfg.Entitlement.GracePeriodDays)
	subscriptionWorker.Start(ctx)

	router := newRouter(cfg.Server.Env)
	routes.RegisterRoutes(router, deps.handlers, cfg.JWT.Secret)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{Addr: address, Handler: router}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

// dependencies holds everything Run needs to wire routes and workers.
type dependencies struct {
	planCache           *cache.TTL[string, *models.SubscriptionPlan]
	dispatcher          *dispatch.Dispatcher
	subscriptionRepo    repositories.SubscriptionRepository
	subscriptionService services.SubscriptionService
	handlers            *routes.AppHandlers
}

func buildDependencies(cfg *config.Config, db *gorm.DB) *dependencies {
	userRepo := repositories.NewUserRepository(db)
	studentRepo := repositories.NewStudentRepository(db)
	companyRepo := repositories.NewCompanyRepository(db)
	jobRepo := repositories.NewJobRepository(db)
	applicationRepo := repositories.NewApplicationRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	mailer := newMailer(cfg, userRepo)
	dispatcher := dispatch.NewDispatcher(notificationRepo, mailer, dispatch.Options{
		QueueSize:     cfg.Dispatch.QueueSize,
		Workers:       cfg.Dispatch.Workers,
		MaxEmailTries: cfg.Dispatch.MaxEmailTries,
	})

	planCacheTTL := time.Duration(cfg.Entitlement.PlanCacheTTLSeconds) * time.Second
	planCache := cache.NewTTL[string, *models.SubscriptionPlan](planCacheTTL, planCacheTTL)

	validate := validator.New()

	entitlementService := services.NewEntitlementService(studentRepo, subscriptionRepo, planCache,
		services.EntitlementConfig{
			FreeTierMaxApplications: cfg.Entitlement.FreeTierMaxApplications,
			GracePeriodDays:         cfg.Entitlement.GracePeriodDays,
		})
	admissionService := services.NewAdmissionService(studentRepo, applicationRepo, entitlementService)
	jobService := services.NewJobService(jobRepo, companyRepo, studentRepo, userRepo, validate, dispatcher)
	applicationService := services.NewApplicationService(
		applicationRepo, jobRepo, studentRepo, companyRepo, userRepo, admissionService, dispatcher)
	subscriptionService := services.NewSubscriptionService(
		subscriptionRepo, studentRepo, userRepo, planCache, dispatcher)
	notificationService := services.NewNotificationService(notificationRepo)
	authService := services.NewAuthService(userRepo, studentRepo, companyRepo, dispatcher,
		cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)

	actors := handlers.NewActorResolver(studentRepo, companyRepo)
	appHandlers := &routes.AppHandlers{
		Auth:         handlers.NewAuthHandler(authService),
		Job:          handlers.NewJobHandler(jobService, actors),
		Application:  handlers.NewApplicationHandler(applicationService, admissionService, actors),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService, entitlementService, actors),
		Notification: handlers.NewNotificationHandler(notificationService),
	}

	return &dependencies{
		planCache:           planCache,
		dispatcher:          dispatcher,
		subscriptionRepo:    subscriptionRepo,
		subscriptionService: subscriptionService,
		handlers:            appHandlers,
	}
}

// newMailer picks SMTP when configured, and a logging no-op otherwise
// so development environments run without a mail server.
func newMailer(cfg *config.Config, userRepo repositories.UserRepository) email.Sender {
	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP not configured, outbound email disabled")
		return &email.NoopSender{}
	}

	// Start from the package defaults; the yaml section only has to
	// name what differs from them.
	smtpCfg := email.DefaultConfig()
	smtpCfg.SMTPHost = cfg.Email.SMTPHost
	smtpCfg.SMTPPort = config.IntOr(cfg.Email.SMTPPort, smtpCfg.SMTPPort)
	smtpCfg.Username = cfg.Email.SMTPUsername
	smtpCfg.Password = cfg.Email.SMTPPassword
	if cfg.Email.FromEmail != "" {
		smtpCfg.FromEmail = cfg.Email.FromEmail
	}
	if cfg.Email.FromName != "" {
		smtpCfg.FromName = cfg.Email.FromName
	}
	if cfg.Email.BaseURL != "" {
		smtpCfg.BaseURL = cfg.Email.BaseURL
	}

	sender, err := email.NewSMTPSender(smtpCfg, email.NewRepoOptOuts(userRepo))
	if err != nil {
		logger.Fatal("Failed to initialize email sender", "error", err)
	}
	return sender
}

func newRouter(env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	return router
}
