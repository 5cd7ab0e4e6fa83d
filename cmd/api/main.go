package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"classnet/api/internal/app"
	"classnet/api/internal/assist"
	"classnet/api/internal/config"
	"classnet/api/internal/search"
	"classnet/api/internal/store"
	"classnet/api/internal/syncbus"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	dataStore := openStore(ctx, cfg)
	defer dataStore.Close()

	var bus syncbus.Bus
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisBus, err := syncbus.NewRedisBus(cfg.RedisURL, cfg.Profile)
		if err != nil {
			log.Printf("WARNING: sync bus unavailable, running standalone: %v", err)
			bus = syncbus.NoopBus{}
		} else {
			defer redisBus.Close()
			bus = redisBus
		}
	} else {
		log.Printf("No Redis configured, sync bus disabled")
		bus = syncbus.NoopBus{}
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewStoreFallback(dataStore))

	var generator assist.Generator
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := assist.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("WARNING: assistant unavailable, using fallback content: %v", err)
		} else {
			generator = gemini
		}
	} else {
		log.Printf("No Gemini API key configured, using fallback content")
	}
	assistService := assist.NewService(generator)

	service := app.New(cfg, dataStore, bus, assistService, searchService)
	if err := service.Start(); err != nil {
		log.Printf("WARNING: sync subscription failed, content changes will not propagate: %v", err)
	}
	defer service.Close()

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("ClassNet API listening on %s (profile %s)", cfg.Addr, cfg.Profile)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// openStore picks the content backend: Postgres when DATABASE_URL is
// set, then Redis, then an in-memory store as the last resort.
func openStore(ctx context.Context, cfg config.Config) store.Store {
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("WARNING: database connection failed, trying Redis: %v", err)
		} else if err := store.EnsureSchema(ctx, db); err != nil {
			log.Printf("WARNING: schema setup failed, trying Redis: %v", err)
			db.Close()
		} else {
			log.Printf("Using PostgreSQL content store")
			return store.NewPostgresStore(db, cfg.Profile)
		}
	}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := store.NewRedisStore(cfg.RedisURL, cfg.Profile)
		if err != nil {
			log.Printf("WARNING: redis connection failed, using in-memory store: %v", err)
		} else {
			log.Printf("Using Redis content store")
			return redisStore
		}
	}
	log.Printf("WARNING: no persistent backend available, content will not survive restarts")
	return store.NewMemoryStore()
}
