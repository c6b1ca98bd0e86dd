package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"brightsteps/portal/internal/config"
	"brightsteps/portal/internal/db"
	internalhttp "brightsteps/portal/internal/http"
	"brightsteps/portal/internal/jobs"
	"brightsteps/portal/internal/repository"
	"brightsteps/portal/internal/yearctx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	var redisClient *redis.Client
	var yearStore yearctx.Store
	var yearNotifier yearctx.Notifier
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisClient.Close()
		yearStore = yearctx.NewRedisStore(redisClient)
		yearNotifier = yearctx.NewRedisNotifier(redisClient)
	} else {
		log.Printf("redis not configured: year selections will not persist")
		yearStore = yearctx.NewMemoryStore()
	}

	store := repository.NewStore(pool)
	years := yearctx.NewManager(yearStore, yearNotifier, cfg.YearsBack, cfg.YearsForward)
	server := internalhttp.NewServer(cfg, store, years, redisClient)

	jobs.StartSessionPurgeJob(ctx, cfg, store)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("portal listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
