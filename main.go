package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"morningfocus/config"
	"morningfocus/cron"
	"morningfocus/database"
	"morningfocus/database/repository"
	"morningfocus/handlers"
	"morningfocus/middleware"
	"morningfocus/routes"
	"morningfocus/services/calendar"
	"morningfocus/services/intelligence"
	"morningfocus/services/notification"
	"morningfocus/services/reflection"
	"morningfocus/services/settings"
	"morningfocus/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync() //nolint:errcheck

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	utils.InitRedis()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// repositories.
	repos := repository.NewMongoRepositories(logger)
	sealer := utils.NewSealer(config.AppConfig.SecretKey)

	// services.
	settingsService := &settings.DefaultSettingsService{
		Repo:                  repos.Settings,
		Sealer:                sealer,
		FallbackLarkAppID:     config.AppConfig.LarkAppID,
		FallbackLarkAppSecret: config.AppConfig.LarkAppSecret,
	}

	googleProvider, err := calendar.NewGoogleProvider(ctx, calendar.GoogleConfig{
		ClientID:     config.AppConfig.GoogleClientID,
		ClientSecret: config.AppConfig.GoogleClientSecret,
		RefreshToken: config.AppConfig.GoogleRefreshToken,
	}, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize google calendar: %v", err)
	}
	larkProvider := &calendar.LarkProvider{
		BaseURL:     config.AppConfig.LarkBaseURL,
		RedirectURI: config.AppConfig.PublicBaseURL + "/api/calendar/lark/callback",
		Timezone:    config.AppConfig.CalendarTimezone,
		HTTP:        &http.Client{Timeout: 15 * time.Second},
		Tokens:      repos.LarkTokens,
		Credentials: settingsService,
		Sealer:      sealer,
		Logger:      logger,
	}
	calendarService := &calendar.CalendarService{
		Settings: settingsService,
		Google:   googleProvider,
		Lark:     larkProvider,
		States:   utils.NewOAuthStateStore(utils.GetCacheClient(), utils.OAuthStateTTL),
		Logger:   logger,
	}

	var generator intelligence.Generator
	if config.AppConfig.GeminiAPIKey != "" {
		gemini, err := intelligence.NewGeminiClient(ctx, config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
		if err != nil {
			logger.Warn("main: gemini unavailable, using local feedback", zap.Error(err))
		} else {
			defer gemini.Close()
			generator = gemini
		}
	} else {
		logger.Info("main: GEMINI_API_KEY not set, using local feedback")
	}
	planCache := intelligence.NewRedisPlanCache(utils.GetCacheClient(), intelligence.PlanCacheTTL)
	feedbackService := intelligence.NewDefaultFeedbackService(generator, planCache, logger)

	var transcriber intelligence.Transcriber
	if speechClient, err := intelligence.NewSpeechTranscriber(ctx, config.AppConfig.GoogleServiceAccountFile); err != nil {
		logger.Warn("main: speech transcription disabled", zap.Error(err))
	} else {
		defer speechClient.Close()
		transcriber = speechClient
	}

	reflectionService := reflection.NewDefaultReflectionService(
		repos.Reflections,
		repos.Blocks,
		settingsService,
		calendarService,
		feedbackService,
		config.AppConfig.UTCOffsetMinutes,
		config.AppConfig.MinBlockMinutes,
		logger,
	)

	// reminders.
	notificationService := notification.NewDefaultNotificationService(settingsService, nil, logger)
	if fcm, err := utils.FirebaseInit(ctx); err != nil {
		logger.Warn("main: push reminders disabled", zap.Error(err))
	} else {
		notificationService.Sender = fcm
	}

	queue := asynq.NewClient(cron.RedisQueueOpt())
	defer queue.Close()

	reminderScheduler := cron.NewReminderScheduler(settingsService, queue, config.AppConfig.UTCOffsetMinutes, logger)
	if err := reminderScheduler.Start(ctx); err != nil {
		logger.Sugar().Fatalf("main: failed to start reminder scheduler: %v", err)
	}
	worker := cron.InitReminderWorker(notificationService, logger)

	utils.StartHealthMonitor(ctx, time.Minute,
		[]*redis.Client{utils.GetCacheClient(), utils.GetQueueClient()},
		database.MongoClient,
	)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewSettingsHandler(settingsService),
		handlers.NewReflectionHandler(reflectionService, transcriber),
		handlers.NewCalendarHandler(calendarService),
	)
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "5000"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	worker.Shutdown()
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
