package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"tuition/docs"
	"tuition/internal/access"
	"tuition/internal/auth"
	"tuition/internal/cache"
	"tuition/internal/config"
	"tuition/internal/handler"
	"tuition/internal/logger"
	"tuition/internal/repository"
	"tuition/internal/router"
	"tuition/internal/service"
	"tuition/internal/storage"
)

// @title Tuition Calculator API
// @version 1.0
// @description Tuition simulator with per-regime course catalogs, a user directory and role-based access.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("load config", "err", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cacheClient *cache.Client
	if cfg.RedisAddr != "" {
		cacheClient = cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cacheClient.Close()
		if err := cacheClient.Ping(ctx); err != nil {
			log.Warn("redis unreachable, token revocation disabled until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
	}

	store, err := storage.Open(cfg, cacheClient)
	if err != nil {
		log.Fatal("open store", "backend", cfg.StoreBackend, "err", err)
	}
	log.Info("store opened", "backend", cfg.StoreBackend)

	catalogService := service.NewCatalogService(repository.NewCatalogRepository(store), log)
	directoryService := service.NewDirectoryService(repository.NewUserRepository(store), log)
	quoteService := service.NewQuoteService(catalogService, log)

	if err := catalogService.Hydrate(ctx); err != nil {
		log.Fatal("hydrate catalog", "err", err)
	}
	if err := directoryService.Hydrate(ctx); err != nil {
		log.Fatal("hydrate directory", "err", err)
	}

	if cfg.StoreBackend != config.BackendMemory && cfg.ReloadInterval > 0 {
		go reloadDirectory(ctx, directoryService, cfg.ReloadInterval, log)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())

	router.Register(e, router.Deps{
		Log:           log,
		Directory:     directoryService,
		JWTService:    jwtService,
		TokenStore:    tokenStore,
		AuthHandler:   handler.NewAuthHandler(directoryService, jwtService, tokenStore, access.DefaultGuard(), log),
		CourseHandler: handler.NewCourseHandler(catalogService, quoteService),
		UserHandler:   handler.NewUserHandler(directoryService),
	})

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server listening", "addr", addr, "swagger", "/swagger/index.html")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server start", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// reloadDirectory re-reads the directory until ctx is done. A session whose
// user was blocked or removed elsewhere is dropped on the next tick.
func reloadDirectory(ctx context.Context, dir service.DirectoryService, every time.Duration, log logger.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := dir.Reload(ctx); err != nil {
				log.Warn("directory reload failed", "err", err)
			}
		}
	}
}
