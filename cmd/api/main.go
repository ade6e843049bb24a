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

	"riskadvisor/internal/backend"
	"riskadvisor/internal/config"
	apihttp "riskadvisor/internal/http"
	"riskadvisor/internal/repository"
	"riskadvisor/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	var (
		store       repository.KeyValueStore
		tokenStore  service.RevokedTokenStore
		limiter     service.RateLimiter
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using file storage", zap.Error(err))
		} else {
			store = repository.NewRedisStore(redisClient)
			tokenStore = service.NewRedisRevokedTokenStore(redisClient)
			limiter = service.NewRedisRateLimiter(redisClient, time.Minute, 10)
		}
		cancel()
	}
	if store == nil {
		fileStore, err := repository.NewFileStore(cfg.StorageDir)
		if err != nil {
			logger.Fatal("storage init", zap.Error(err))
		}
		logger.Info("using file storage", zap.String("path", fileStore.Path()))
		store = fileStore
	}

	identityRepo := repository.NewIdentityRepository(store)
	seed := repository.Identity{CompanyNumber: cfg.CompanyNumber, UserID: cfg.UserID}
	if err := identityRepo.Save(ctx, seed); err != nil {
		logger.Warn("identity seed failed", zap.Error(err))
	}

	client := backend.NewHTTPClient(cfg.BackendURL, identityRepo, cfg.RequestTimeout, cfg.ReadRetries, logger)
	chatSvc := service.NewChatService(client, cfg.App, cfg.HistoryLimit, logger)
	agentSvc := service.NewAgentService(client, cfg.App.UI.ShowAgentStatus, logger)
	docSvc := service.NewDocumentSearchService(client, logger)

	if err := chatSvc.RefreshData(ctx); err != nil {
		logger.Warn("initial history load failed", zap.Error(err))
	}
	chatSvc.AddWelcomeMessage()
	if cfg.App.Agents.Enabled {
		go agentSvc.Poll(ctx, cfg.AgentPollInterval)
	}

	if limiter == nil {
		limiter = service.NewMemoryRateLimiter(time.Minute, 10)
	}
	tokens := service.NewGatewayTokenService(cfg.GatewayJWTSecret, cfg.GatewayTokenTTL, tokenStore)
	if !tokens.Enabled() {
		logger.Warn("gateway jwt secret not configured, /api is open")
	}

	handlers := apihttp.NewHandlers(logger, chatSvc, agentSvc, docSvc, identityRepo, tokens, limiter)
	router := apihttp.NewRouter(logger, handlers, tokens, cfg.CORSOrigins)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	logger.Info("starting server", zap.String("addr", cfg.Addr()), zap.String("backend", cfg.BackendURL))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
