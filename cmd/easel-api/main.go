package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/easelhq/easel-api/internal/broadcast"
	"github.com/easelhq/easel-api/internal/collab"
	"github.com/easelhq/easel-api/internal/config"
	"github.com/easelhq/easel-api/internal/database"
	"github.com/easelhq/easel-api/internal/handlers"
	"github.com/easelhq/easel-api/internal/hub"
	authmw "github.com/easelhq/easel-api/internal/middleware"
	"github.com/easelhq/easel-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	snapshotService := services.NewSnapshotService(db)
	conflictService := services.NewConflictService(db)

	eventHub := hub.NewHub()
	go eventHub.Run()

	var gateway collab.Gateway = eventHub
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		bridge := broadcast.NewBridge(rdb, eventHub)
		go bridge.Run(ctx)
		defer bridge.Stop()
		gateway = bridge
	}

	manager := collab.NewManager(snapshotService, conflictService, gateway, collab.Config{
		DefaultStrategy: collab.Strategy(cfg.DefaultConflictStrategy),
		SnapshotEvery:   cfg.SnapshotEvery,
		OperationLogCap: cfg.OperationLogCap,
		ChatHistoryCap:  cfg.ChatHistoryCap,
	})

	sessionHandler := handlers.NewSessionHandler(manager, snapshotService)
	updateHandler := handlers.NewUpdateHandler(manager, conflictService)
	chatHandler := handlers.NewChatHandler(manager)
	sseHandler := handlers.NewSSEHandler(eventHub, manager)
	wsHandler := handlers.NewWebSocketHandler(eventHub, manager)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/sessions", sessionHandler.Create)
	protected.Get("/sessions", sessionHandler.List)
	protected.Get("/sessions/:sessionId", sessionHandler.Get)
	protected.Post("/sessions/:sessionId/join", sessionHandler.Join)
	protected.Post("/sessions/:sessionId/leave", sessionHandler.Leave)
	protected.Post("/sessions/:sessionId/close", sessionHandler.Close)

	protected.Post("/sessions/:sessionId/updates", updateHandler.Submit)
	protected.Get("/sessions/:sessionId/conflicts", updateHandler.ListConflicts)
	protected.Post("/sessions/:sessionId/conflicts/:conflictId/resolve", updateHandler.Resolve)

	protected.Post("/sessions/:sessionId/chat", chatHandler.Send)
	protected.Get("/sessions/:sessionId/chat", chatHandler.History)

	protected.Get("/sessions/:sessionId/events", sseHandler.Connect)
	protected.Post("/sse/:clientId/subscribe/:sessionId", sseHandler.Subscribe)
	protected.Post("/sse/:clientId/unsubscribe/:sessionId", sseHandler.Unsubscribe)

	protected.Get("/ws/sessions/:sessionId", wsHandler.Connect)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	evictor := collab.NewEvictor(manager.Store(), cfg.SessionIdleTimeout, cfg.EvictionInterval)
	go evictor.Run(ctx)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
