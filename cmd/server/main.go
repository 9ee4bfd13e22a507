package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/dailyhi/internal/api"
	"github.com/ignite/dailyhi/internal/config"
	"github.com/ignite/dailyhi/internal/content"
	"github.com/ignite/dailyhi/internal/delivery"
	"github.com/ignite/dailyhi/internal/mailer"
	"github.com/ignite/dailyhi/internal/pkg/httpretry"
	"github.com/ignite/dailyhi/internal/repository/postgres"
	"github.com/ignite/dailyhi/internal/signup"
	"github.com/ignite/dailyhi/internal/validator"
)

func main() {
	log.Println("Starting Daily Hi server...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database URL is required (config database.url or DATABASE_URL)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to ping database: %v", err)
	}
	pingCancel()
	log.Println("Connected to database")

	// Redis is optional; without it the health endpoint just skips
	// the check and the worker (separate binary) runs unfenced.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s", cfg.Redis.Addr)
		}
		pingCancel()
	}

	composer, err := delivery.NewComposer(cfg.Delivery.Hostname)
	if err != nil {
		log.Fatalf("Failed to build mail composer: %v", err)
	}

	var m mailer.Mailer
	if cfg.SES.AccessKey != "" && cfg.SES.SecretKey != "" {
		sesMailer, err := mailer.NewSESMailer(cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region, cfg.Delivery.FromName, cfg.Delivery.FromEmail)
		if err != nil {
			log.Fatalf("Failed to initialize SES: %v", err)
		}
		m = sesMailer
		log.Printf("SES mailer initialized (region: %s)", cfg.SES.Region)
	} else {
		m = mailer.LogMailer{}
		log.Println("SES not configured - mail will be logged, not sent")
	}

	store := postgres.NewSubscriptionStore(db)

	var photos *content.PhotoClient
	if cfg.Content.PhotoAPIKey != "" {
		httpClient := httpretry.NewRetryClient(&http.Client{
			Timeout: time.Duration(cfg.Content.TimeoutSeconds) * time.Second,
		}, 3)
		photos = content.NewPhotoClient(httpClient, cfg.Content.PhotoAPIURL, cfg.Content.PhotoAPIKey)
		log.Println("Photo source configured")
	} else {
		log.Println("Photo source not configured (missing API key) - digests will omit photos")
	}
	facts := content.NewFactSource(cfg.Content.WeeklyFactsPath, cfg.Content.FactsPath, cfg.Content.FactFeedURL)
	provider := content.NewProvider(photos, facts)

	scheduler := delivery.NewScheduler(store, provider, m, composer,
		cfg.Delivery.AnchorHour,
		time.Duration(cfg.Delivery.SendTimeoutSeconds)*time.Second)

	signupSvc := signup.NewService(store, validator.New(nil), m, composer)

	server := api.NewServer(signupSvc, scheduler, db, redisClient)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	log.Println("Server stopped")
}
