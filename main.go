package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"moodping/api/analytics"
	"moodping/api/config"
	"moodping/api/database"
	"moodping/api/handlers"
	"moodping/api/llm"
	"moodping/api/logging"
	"moodping/api/metrics"
	"moodping/api/middleware"
	"moodping/api/services"
	"moodping/api/store"
	"moodping/api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	out := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.IsRelease()})
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = out

	ctx := context.Background()

	// --- PostgreSQL (users, mood records, reports, events by default) ---
	dbClient, err := database.NewPostgresDB(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
	}
	defer dbClient.Close()

	if err := database.ApplySchema(ctx, dbClient.DB); err != nil {
		log.Fatalf("Failed to apply PostgreSQL schema: %v", err)
	}

	// --- Event store backend ---
	var events store.EventStore
	switch cfg.EventStore {
	case "clickhouse":
		chClient, err := database.NewClickHouseDB(ctx, cfg.ClickHouse)
		if err != nil {
			log.Fatalf("Failed to initialize ClickHouse database: %v", err)
		}
		defer chClient.Close()
		if err := chClient.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare ClickHouse schema: %v", err)
		}
		events = store.NewClickHouseEventStore(chClient)
	case "memory":
		log.Warn("EVENT_STORE=memory: events are lost on restart")
		events = store.NewMemoryEventStore()
	default:
		events = store.NewPostgresEventStore(dbClient.DB)
	}
	log.WithField("backend", cfg.EventStore).Info("Event store ready")

	// --- LLM provider; an unknown name stops startup ---
	gateway, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}

	// --- Stores and services ---
	userStore := store.NewUserStore(dbClient.DB)
	moodStore := store.NewMoodStore(dbClient.DB)
	reportStore := store.NewReportStore(dbClient.DB)

	tokens := utils.NewJWTManager(cfg.JWTSecretKey, cfg.JWTExpire)
	engine := analytics.NewEngine(events, analytics.Options{
		DropThresholdMinutes: cfg.DropThresholdMinutes,
		RetentionDays:        cfg.RetentionDays,
	})
	moodService := services.NewMoodService(moodStore, gateway)
	reportService := services.NewReportService(reportStore, moodStore, gateway)
	authService := services.NewAuthService(cfg.Kakao, userStore, tokens, nil)

	// --- Handlers ---
	eventHandlers := handlers.NewEventHandlers(events, engine)
	moodHandlers := handlers.NewMoodHandlers(moodService)
	reportHandlers := handlers.NewReportHandlers(reportService)
	authHandlers := handlers.NewAuthHandlers(authService, cfg.JWTExpire, cfg.IsRelease())

	if cfg.DebugAPIKeyHash == "" {
		log.Warn("DEBUG_API_KEY_HASH not set: debug endpoints are open")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Instrument(), middleware.CORSMiddleware(cfg.FEOrigin))
	optionalAuth := middleware.OptionalAuth(tokens)

	api := r.Group("/api")
	{
		api.POST("/events", eventHandlers.LogEvent)
		api.POST("/events/batch", eventHandlers.LogEvents)
		api.GET("/reports/weekly/latest", optionalAuth, reportHandlers.LatestWeekly)

		debug := api.Group("/debug")
		debug.Use(middleware.DebugKey(cfg.DebugAPIKeyHash))
		{
			debug.GET("/metrics", eventHandlers.DebugMetrics)
			debug.GET("/recent-records", moodHandlers.RecentRecords)
		}
	}

	r.POST("/mood-records", optionalAuth, moodHandlers.CreateMoodRecord)
	r.POST("/users/link-data", optionalAuth, moodHandlers.LinkData)

	auth := r.Group("/auth")
	{
		auth.GET("/kakao", authHandlers.KakaoLogin)
		auth.GET("/kakao/callback", authHandlers.KakaoCallback)
		auth.GET("/me", middleware.AuthRequired(tokens), authHandlers.Me)
		auth.POST("/logout", authHandlers.Logout)
	}
	r.GET("/kakao-authentication/request-access-token-after-redirection", authHandlers.KakaoCallback)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/health", handlers.Health(dbClient.DB))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("MoodPing API starting on http://localhost:%s (llm=%s)", cfg.Port, gateway.Provider())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("MoodPing API failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exiting.")
}
