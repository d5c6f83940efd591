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

	"plantpal/api/internal/aichat"
	"plantpal/api/internal/app"
	"plantpal/api/internal/config"
	"plantpal/api/internal/email"
	"plantpal/api/internal/hub"
	"plantpal/api/internal/media"
	"plantpal/api/internal/notify"
	"plantpal/api/internal/search"
	"plantpal/api/internal/session"
	"plantpal/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Client().Disconnect(disconnectCtx)
	}()
	dataStore := store.NewMongo(db)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, dataStore)
	if meiliClient != nil && meiliClient.Healthy() {
		if posts, err := dataStore.ListPosts(ctx); err == nil {
			searchService.ReindexAll(posts)
		}
	}

	mediaService, err := media.NewService(ctx, media.Config{
		Endpoint:  cfg.MediaEndpoint,
		AccessKey: cfg.MediaAccessKey,
		SecretKey: cfg.MediaSecretKey,
		Bucket:    cfg.MediaBucket,
		UseSSL:    cfg.MediaUseSSL,
	})
	if err != nil {
		log.Fatalf("media storage failed: %v", err)
	}

	var redisStore *session.RedisStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err = session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		log.Printf("Using Redis for refresh token storage")
	} else {
		log.Printf("Redis not configured, refresh sessions disabled")
	}

	aiService := aichat.NewService(aichat.Config{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
		Timeout: cfg.GroqTimeout,
	})

	mailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})

	registry := hub.NewRegistry()
	engine := notify.NewEngine(dataStore, registry)
	service := app.New(cfg, dataStore, redisStore, engine, aiService, mailService, mediaService, searchService)
	liveHub := hub.New(registry, service)

	httpServer := app.NewHTTPServer(service, http.HandlerFunc(liveHub.ServeWS), cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("PlantPal API listening on %s", cfg.Addr)
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
