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

	"github.com/ignite/dailyhi/internal/config"
	"github.com/ignite/dailyhi/internal/content"
	"github.com/ignite/dailyhi/internal/delivery"
	"github.com/ignite/dailyhi/internal/mailer"
	"github.com/ignite/dailyhi/internal/pkg/distlock"
	"github.com/ignite/dailyhi/internal/pkg/httpretry"
	"github.com/ignite/dailyhi/internal/repository/postgres"
)

// runLockTTL covers one full delivery pass with headroom; the lock is
// released explicitly when the pass finishes early.
const runLockTTL = 50 * time.Minute

func main() {
	log.Println("Starting Daily Hi delivery worker...")

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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v - runs will not be fenced across replicas", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s (run fencing enabled)", cfg.Redis.Addr)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured - runs will not be fenced across replicas")
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
	} else {
		m = mailer.LogMailer{}
		log.Println("SES not configured - mail will be logged, not sent")
	}

	var photos *content.PhotoClient
	if cfg.Content.PhotoAPIKey != "" {
		httpClient := httpretry.NewRetryClient(&http.Client{
			Timeout: time.Duration(cfg.Content.TimeoutSeconds) * time.Second,
		}, 3)
		photos = content.NewPhotoClient(httpClient, cfg.Content.PhotoAPIURL, cfg.Content.PhotoAPIKey)
	}
	facts := content.NewFactSource(cfg.Content.WeeklyFactsPath, cfg.Content.FactsPath, cfg.Content.FactFeedURL)
	provider := content.NewProvider(photos, facts)

	scheduler := delivery.NewScheduler(postgres.NewSubscriptionStore(db), provider, m, composer,
		cfg.Delivery.AnchorHour,
		time.Duration(cfg.Delivery.SendTimeoutSeconds)*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for {
			now := time.Now().UTC()
			next := now.Truncate(time.Hour).Add(time.Hour)
			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
			}
			runHour(ctx, scheduler, redisClient, next)
		}
	}()

	log.Println("Worker running - delivery fires at the top of each UTC hour")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()
	if redisClient != nil {
		redisClient.Close()
	}
	log.Println("Worker stopped")
}

// runHour executes one delivery pass for the given UTC hour. With
// Redis available the pass is fenced on a per-hour lock so replicas
// firing at the same instant never double-send a bucket.
func runHour(ctx context.Context, scheduler *delivery.Scheduler, redisClient *redis.Client, hour time.Time) {
	if redisClient != nil {
		lock := distlock.NewRedisLock(redisClient, fmt.Sprintf("delivery:%s", hour.Format("2006-01-02T15")), runLockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			log.Printf("Lock acquire failed for %s: %v - skipping run", hour.Format(time.RFC3339), err)
			return
		}
		if !acquired {
			log.Printf("Another replica holds the %s run - skipping", hour.Format(time.RFC3339))
			return
		}
		defer lock.Release(ctx)
	}

	report, err := scheduler.RunOnce(ctx, hour)
	if err != nil {
		log.Printf("Delivery run failed for %s: %v", hour.Format(time.RFC3339), err)
		return
	}
	log.Printf("Delivery run for %s: offset %+d, attempted %d, sent %d, failed %d",
		hour.Format(time.RFC3339), report.Offset, report.Attempted, report.Sent, report.Failed)
}
