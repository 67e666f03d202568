package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/handlers"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/middleware"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/routes"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/domain/progression"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/domain/streaks"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/domain/usage"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/infrastructure/cache"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/infrastructure/persistence/postgres/connection"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/infrastructure/persistence/postgres/migrations"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/infrastructure/scheduler"
	"github.com/Akogare-Cafe/vibebuff-sub007/pkg/config"
	"github.com/Akogare-Cafe/vibebuff-sub007/pkg/logger"
	"github.com/coder/quartz"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := connection.NewDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := migrations.AutoMigrate(db, log.Logger); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	redisClient, err := cache.NewRedisClient(cache.NewConfigFromEnv(cfg))
	if err != nil {
		// Redis only backs caching; the engine degrades to uncached reads.
		log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}

	clock := quartz.NewReal()

	usageRepo := usage.NewRepository(db)
	usageService := usage.NewService(usageRepo, usage.ServiceConfig{
		Policies:       policyTableFromConfig(cfg),
		Retention:      cfg.Engine.UsageRetention,
		PruneBatchSize: cfg.Engine.PruneBatchSize,
	}, clock, log.Logger)

	progressionRepo := progression.NewRepository(db)
	progressionService := progression.NewService(progressionRepo, progression.DefaultTitleTable(), clock, log.Logger)

	streaksRepo := streaks.NewRepository(db)
	streaksService := streaks.NewService(streaksRepo, progressionService, progressionService, streaks.ServiceConfig{
		Rewards:        streaks.RewardTable(cfg.Engine.StreakRewards),
		LeaderboardTTL: cfg.Engine.LeaderboardTTL,
	}, redisClient, clock, log.Logger)

	pruneScheduler := scheduler.NewScheduler(usageService, cfg.Engine.PruneInterval, log)
	pruneScheduler.Start()
	defer pruneScheduler.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/health/cache", func(c *gin.Context) {
		if redisClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "cache disabled"})
			return
		}
		if err := redisClient.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "cache unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "metrics": redisClient.GetMetrics()})
	})

	jwtSecret := cfg.Auth.JWTSecret
	routes.SetupUsageRoutes(router, handlers.NewUsageHandler(usageService, log.Logger), jwtSecret)
	routes.SetupStreaksRoutes(router, handlers.NewStreaksHandler(streaksService, cfg.Engine.LeaderboardSize, log.Logger), jwtSecret)
	routes.SetupXpRoutes(router, handlers.NewXpHandler(progressionService, log.Logger), jwtSecret)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced server shutdown", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	log.Info("Server stopped")
}

// policyTableFromConfig builds the rate-limit table from configuration,
// falling back to the built-in quotas when no overrides are set.
func policyTableFromConfig(cfg *config.Config) usage.PolicyTable {
	if len(cfg.Engine.RateLimits) == 0 {
		return usage.DefaultPolicyTable()
	}

	policies := make(map[string]usage.Policy, len(cfg.Engine.RateLimits))
	for action, p := range cfg.Engine.RateLimits {
		policies[action] = usage.Policy{Max: p.Max, Window: p.Window}
	}

	fallback := usage.Policy{Max: cfg.Engine.DefaultMax, Window: cfg.Engine.DefaultWindow}
	if fallback.Max <= 0 {
		fallback.Max = 100
	}
	if fallback.Window <= 0 {
		fallback.Window = time.Hour
	}

	return usage.NewPolicyTable(policies, fallback)
}
