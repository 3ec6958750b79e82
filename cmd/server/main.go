package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghazistore/backend/internal/cache"
	"ghazistore/backend/internal/config"
	"ghazistore/backend/internal/httpapi"
	"ghazistore/backend/internal/ledger"
	"ghazistore/backend/internal/ledger/memory"
	pgledger "ghazistore/backend/internal/ledger/postgres"
	"ghazistore/backend/internal/persist"
	"ghazistore/backend/internal/service"
)

// defaultStorePassword is the dev fallback for the single shared credential.
// Production deployments must set STORE_PASSWORD.
const defaultStorePassword = "Ghazi786"

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	if cfg.StorePassword == "" {
		log.Println("WARNING: using default dev store password. Set STORE_PASSWORD to override.")
		cfg.StorePassword = defaultStorePassword
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var lg ledger.Ledger
	var saver service.Saver
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgledger.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		lg = pg
		closers = append(closers, pg.Close)
		log.Println("ledger: postgres")
	} else {
		fileStore := persist.NewFileStore(cfg.DataFile)
		loaded := fileStore.Load()
		lg = memory.NewFromRecords(loaded.Items, loaded.Sales, loaded.Recoveries, loaded.Expenses)
		saver = fileStore
		log.Printf("ledger: in-memory, snapshot file %s", cfg.DataFile)
	}

	snapshotCache := cache.SnapshotCache(cache.NoopSnapshotCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSnapshotCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			snapshotCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	svc := service.New(lg, saver, snapshotCache, time.Duration(cfg.SnapshotTTLSeconds)*time.Second)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.StorePassword)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("store backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.StorePassword != "" && len(cfg.StorePassword) < 6 {
		return fmt.Errorf("STORE_PASSWORD must be at least 6 characters")
	}
	return nil
}
