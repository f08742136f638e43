package main

import (
	"context"
	"os"

	"tuition/internal/cache"
	"tuition/internal/config"
	"tuition/internal/logger"
	"tuition/internal/model"
	"tuition/internal/repository"
	"tuition/internal/service"
	"tuition/internal/storage"
)

// Writes the initial catalog and directory into the configured store. Existing
// data is kept unless RESET_STORE=true, in which case every snapshot is
// removed first and the seed data written fresh.
func main() {
	log := logger.New(logger.Config{})
	log.Info("starting seed script")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	if cfg.StoreBackend == config.BackendMemory {
		log.Fatal("seeding the memory backend has no lasting effect; set STORE_BACKEND")
	}

	var cacheClient *cache.Client
	if cfg.RedisAddr != "" {
		cacheClient = cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cacheClient.Close()
	}

	store, err := storage.Open(cfg, cacheClient)
	if err != nil {
		log.Fatal("open store", "backend", cfg.StoreBackend, "err", err)
	}
	ctx := context.Background()

	if os.Getenv("RESET_STORE") == "true" {
		log.Warn("RESET_STORE=true detected, removing stored snapshots")
		for _, key := range []string{repository.CoursesKey, repository.UsersKey, repository.SessionKey} {
			if err := store.Delete(ctx, key); err != nil {
				log.Fatal("delete snapshot", "key", key, "err", err)
			}
		}
	}

	catalog := service.NewCatalogService(repository.NewCatalogRepository(store), log)
	if err := catalog.Hydrate(ctx); err != nil {
		log.Fatal("seed catalog", "err", err)
	}
	directory := service.NewDirectoryService(repository.NewUserRepository(store), log)
	if err := directory.Hydrate(ctx); err != nil {
		log.Fatal("seed directory", "err", err)
	}

	for _, regime := range model.Regimes {
		courses, _ := catalog.List(ctx, regime)
		log.Info("catalog ready", "regime", regime, "courses", len(courses))
	}
	log.Info("directory ready", "users", len(directory.List(ctx)))
	log.Info("seed completed")
}
