package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/avolkov/finance-tracker/internal/auth"
	"github.com/avolkov/finance-tracker/internal/config"
	"github.com/avolkov/finance-tracker/internal/database"
	"github.com/avolkov/finance-tracker/internal/handler"
	"github.com/avolkov/finance-tracker/internal/middleware"
	"github.com/avolkov/finance-tracker/internal/queue"
	"github.com/avolkov/finance-tracker/internal/repository"
	"github.com/avolkov/finance-tracker/internal/router"
	"github.com/avolkov/finance-tracker/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	transactions := repository.NewTransactionRepo(db)
	goals := repository.NewGoalRepo(db)
	budgets := repository.NewBudgetRepo(db)

	codec := auth.NewCodec(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	manager := service.NewSessionManager(users, sessions, codec, cfg.BcryptCost)
	publisher := service.NewEventPublisher(os.Getenv("RABBITMQ_URL"))

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, response cache disabled")
	}
	cache := middleware.NewCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(manager, cfg.Env == "prod"))
	router.RegisterFinance(e,
		middleware.AuthGate(codec, users),
		cache,
		handler.NewTransactionHandler(transactions, cache, publisher),
		handler.NewGoalHandler(goals, cache),
		handler.NewBudgetHandler(budgets, cache),
	)

	go queue.StartTransactionConsumer(os.Getenv("RABBITMQ_URL"))
	go pruneSessions(sessions)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// pruneSessions periodically removes expired refresh sessions.  Lookups
// already treat expired rows as absent; this only keeps the table small.
func pruneSessions(sessions *repository.SessionRepo) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if n, err := sessions.DeleteExpiredSessions(ctx); err != nil {
			log.Printf("session prune failed: %v", err)
		} else if n > 0 {
			log.Printf("pruned %d expired sessions", n)
		}
		cancel()
	}
}
