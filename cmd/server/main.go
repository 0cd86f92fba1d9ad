package main // Entry point package

import (
	"context" // Context for the background sweeper
	"log"     // Logging library

	"github.com/joho/godotenv"    // Load .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/mgmcelwee/evony/internal/config"     // Internal config loader
	"github.com/mgmcelwee/evony/internal/database"   // MySQL connection and schema
	"github.com/mgmcelwee/evony/internal/game"       // Raid engine
	"github.com/mgmcelwee/evony/internal/handler"    // HTTP handlers
	"github.com/mgmcelwee/evony/internal/mail"       // In-game mail delivery
	"github.com/mgmcelwee/evony/internal/queue"      // RabbitMQ consumer
	"github.com/mgmcelwee/evony/internal/repository" // MySQL repositories
	"github.com/mgmcelwee/evony/internal/router"     // Internal router setup
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load()                  // Load environment config
	rlCfg := config.LoadRateLimitConfig() // Rate limiter settings

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	rdb := config.NewRedisClient() // Nil when REDIS_ADDR is unset

	// Repositories and the game engine.
	store := repository.NewStore(db)
	users := repository.NewUserRepo(db)
	cities := repository.NewCityRepo(db)
	mails := repository.NewMailRepo(db)
	authz := repository.NewAuthorizer(db)

	clock := game.SystemClock{}
	mailSvc := mail.NewService(mails, rdb)
	eng := game.NewEngine(store, clock, authz, mailSvc, game.Options{
		MaxActiveRaids: cfg.MaxActiveRaids,
	})

	// Background consumer that archives resolved-raid events from RabbitMQ.
	go func() {
		if err := queue.StartRaidConsumer(); err != nil {
			log.Printf("raid consumer stopped: %v", err)
		}
	}()

	// Background sweeper so raids resolve even when nobody is reading them.
	go eng.RunSweeper(ctx, cfg.SweepInterval, func(err error) {
		log.Printf("sweep: %v", err)
	})

	e := echo.New() // Create Echo instance

	h := router.Handlers{
		Auth: handler.NewAuthHandler(cfg, users, cities),
		Raid: handler.NewRaidHandler(eng, clock),
		Mail: handler.NewMailHandler(mails, mailSvc),
		City: handler.NewCityHandler(cities, store, clock),
	}
	router.RegisterRoutes(e)                   // Register health check
	router.RegisterAuth(e, h.Auth)             // Register auth routes
	router.RegisterGame(e, h, cfg, rlCfg, rdb) // Register game routes

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
