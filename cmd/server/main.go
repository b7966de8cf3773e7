package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/authflow/internal/api"
	"github.com/wuwenbin0122/authflow/internal/audit"
	"github.com/wuwenbin0122/authflow/internal/auth"
	"github.com/wuwenbin0122/authflow/internal/db"
	"github.com/wuwenbin0122/authflow/internal/session"
	"github.com/wuwenbin0122/authflow/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger := utils.MustNewLogger(cfg.Logging)
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)
	ctx := context.Background()

	postgres, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal("postgres: failed to connect", zap.Error(err))
	}
	defer postgres.Close()

	if err := postgres.Ping(ctx); err != nil {
		logger.Fatal("postgres: ping failed", zap.Error(err))
	}
	if err := postgres.EnsureSchema(ctx); err != nil {
		logger.Fatal("postgres: ensure schema", zap.Error(err))
	}

	var sessionStore session.Store
	if cfg.Redis.URL != "" {
		rdb, err := db.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("redis: failed to connect", zap.Error(err))
		}
		defer rdb.Close()
		sessionStore = session.NewRedisStore(rdb, cfg.Session.TTL)
	} else {
		logger.Warn("session: REDIS_URL not set, using in-process store")
		sessionStore = session.NewMemoryStore(cfg.Session.TTL)
	}

	var recorder audit.Recorder = audit.Nop{}
	if cfg.Mongo.URI != "" {
		mongoStore, err := db.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			logger.Fatal("mongo: failed to connect", zap.Error(err))
		}
		defer func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				logger.Warn("mongo: close error", zap.Error(err))
			}
		}()

		if err := mongoStore.EnsureCollections(ctx); err != nil {
			logger.Fatal("mongo: ensure collections", zap.Error(err))
		}
		recorder = audit.NewMongoRecorder(mongoStore.AuthEvents, logger)
	}

	authService, err := auth.NewService(db.NewUserStore(postgres.DB), auth.NewHasher(cfg.BcryptCost), recorder)
	if err != nil {
		logger.Fatal("failed to initialise auth service", zap.Error(err))
	}

	sessions := session.NewManager(sessionStore, cfg.Session, logger)
	router := setupRouter(cfg, logger, authService, sessions, postgres)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server crashed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}

func setupRouter(cfg *utils.Config, logger *zap.Logger, authService *auth.Service, sessions *session.Manager, postgres *db.Postgres) *gin.Engine {
	router := gin.New()
	router.Use(api.RequestLogger(logger), api.Recovery(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if err := postgres.Ping(c.Request.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api.NewHandler(authService, sessions, logger).RegisterRoutes(router)

	return router
}
