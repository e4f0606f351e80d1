package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"exercisehub/internal/app"
	"exercisehub/internal/cache"
	"exercisehub/internal/config"
	"exercisehub/internal/service"
	"exercisehub/internal/transport/rest"
	"exercisehub/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store:", err)
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	defer wsHub.Close()
	log.Println("WebSocket hub started")

	// Events reach other instances through Redis when enabled
	var emitter service.Emitter = wsHub
	if cfg.RedisEnabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal("Failed to ping Redis:", err)
		}
		log.Println("Connected to Redis")

		relay := cache.NewEventRelay(rdb, wsHub)
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Warning: event relay stopped: %v", err)
			}
		}()
		emitter = relay
	} else {
		log.Println("Warning: REDIS_ENABLED not set, events stay on this instance")
	}
	a.Hooks.SetEmitter(emitter)

	router := rest.NewRouter(&rest.Container{
		Hooks:          a.Hooks,
		Submissions:    a.SubmitLog,
		WSHub:          wsHub,
		ControllerRole: cfg.ControllerRole,
		CORS: rest.CORSConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: cfg.AllowedMethods,
			AllowedHeaders: cfg.AllowedHeaders,
		},
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/presentations/{presentationId}/parse")
		log.Println("  PUT  /v1/exercises/{exerciseId}/settings")
		log.Println("  POST /v1/exercises/{exerciseId}/submissions")
		log.Println("  GET  /v1/sessions/{sessionId}/exercises/{exerciseId}/progress")
		log.Println("  GET  /v1/sessions/{sessionId}/presenter")
		log.Println("  GET  /v1/sessions/{sessionId}/viewers/{answereeId}")
		log.Println("  WS   /v1/ws/sessions/{sessionId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Printf("Warning: store disconnect: %v", err)
	}

	log.Println("Server exited")
}
