package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rollcall/internal/attendance"
	"rollcall/internal/config"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Worker consumes stats refresh messages and rewrites the cached session
// stats so the API can serve them without hitting Postgres.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:stats-refresh")
	}

	att := attendance.NewService(attendance.NewRepository(db.Client)).
		WithStatsCache(attendance.NewRedisStatsCache(redisClient.Client), cfg.StatsCacheTTL)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeStatsRefresh {
			continue
		}

		sessionID := string(msg.Body)
		stats, err := att.RefreshStats(ctx, sessionID)
		if err != nil {
			log.Printf("stats refresh failed for session %s: %v", sessionID, err)
			continue
		}
		log.Printf("session %s stats refreshed: %d records, rate %d%%", sessionID, stats.Total, stats.AttendanceRate)
	}

	log.Println("worker stopped")
}
