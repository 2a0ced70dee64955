package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"gala-giveaway-backend/internal/common/config"
	"gala-giveaway-backend/internal/common/logger"
	"gala-giveaway-backend/internal/common/middleware"
	giveawayHTTP "gala-giveaway-backend/internal/features/giveaway/delivery/http"
	"gala-giveaway-backend/internal/features/giveaway/models"
	giveawayRedis "gala-giveaway-backend/internal/features/giveaway/repository/redis"
	giveawayService "gala-giveaway-backend/internal/features/giveaway/service"
	profileHTTP "gala-giveaway-backend/internal/features/profile/delivery/http"
	profileRedis "gala-giveaway-backend/internal/features/profile/repository/redis"
	profileService "gala-giveaway-backend/internal/features/profile/service"
	"gala-giveaway-backend/internal/platform/galachain"
	"gala-giveaway-backend/internal/platform/redis"
	"gala-giveaway-backend/internal/utils/random"
)

func main() {
	cfg := config.Load()
	logger.Init("gala-giveaway-backend", cfg.Debug)

	gasToken, err := models.ParseTokenClassKey(cfg.GalaChain.GasFeeToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid gas fee token configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := redis.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("addr", cfg.RedisAddr()).Msg("Redis connection established")

	ledger := galachain.NewClient(cfg.GalaChain.GatewayURL, cfg.GalaChain.APIToken, cfg.GalaChain.RequestTimeout)

	giveawayRepo := giveawayRedis.NewRedisGiveawayRepository(redisClient.Client)
	profileRepo := profileRedis.NewRedisProfileRepository(redisClient.Client)

	rand := random.NewCryptoSource()
	profileSvc := profileService.NewService(profileRepo)
	giveawaySvc := giveawayService.NewService(giveawayRepo, profileRepo, ledger, rand, giveawayService.Config{
		GasFeeToken: gasToken,
		MinWindow:   cfg.Giveaway.MinWindow,
		StartSkew:   cfg.Giveaway.StartSkew,
	})

	settlement := giveawayService.NewSettlementService(giveawayRepo, profileRepo, ledger, rand, cfg.Settlement.Interval)
	settlement.Start()
	defer settlement.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", middleware.HeaderSignature, middleware.HeaderTimestamp}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.WalletSignature())
	profileHTTP.NewProfileHandler(profileSvc).RegisterRoutes(v1)
	giveawayHTTP.NewGiveawayHandler(giveawaySvc).RegisterRoutes(v1)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "gala-giveaway-backend",
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
