package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdg-garage/community-events/internal/auth"
	"github.com/gdg-garage/community-events/internal/cache"
	"github.com/gdg-garage/community-events/internal/config"
	"github.com/gdg-garage/community-events/internal/database"
	"github.com/gdg-garage/community-events/internal/events"
	"github.com/gdg-garage/community-events/internal/handlers"
	"github.com/gdg-garage/community-events/internal/logger"
	"github.com/gdg-garage/community-events/internal/registration"
	"github.com/gdg-garage/community-events/internal/revalidate"
	"github.com/gdg-garage/community-events/internal/store"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
		ServiceName: "community-events",
	})
	defer log.Sync()

	// Connect to Database
	db := database.Connect(cfg, log)
	st := store.New(db, database.TxOptions(cfg))

	// Revalidation fan-out and view cache
	views := cache.Views(cache.Nop{})
	revalidators := revalidate.Multi{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(context.Background(), cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("view cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			viewCache := cache.NewViewCache(rdb, cfg.ViewCachePrefix, cfg.ViewCacheTTL, log)
			views = viewCache
			revalidators = append(revalidators, viewCache)
		}
	}
	if cfg.AMQPURL != "" {
		broadcaster := revalidate.NewBroadcaster(cfg.AMQPURL, cfg.AMQPExchange, log)
		defer broadcaster.Close()
		revalidators = append(revalidators, broadcaster)
	}

	// Initialize Services and Handlers
	eventService := events.NewService(st, revalidators, log)
	registrationService := registration.NewService(st, revalidators, log)
	authHandler := auth.NewAuthHandler(cfg, db, log)

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, cfg, log, handlers.Handlers{
		Auth:         authHandler,
		Events:       handlers.NewEventHandler(eventService, views, log),
		Admin:        handlers.NewAdminHandler(eventService, log),
		Registration: handlers.NewRegistrationHandler(registrationService, log),
		APIKeys:      handlers.NewAPIKeyHandler(db, log),
		Profile:      handlers.NewProfileHandler(db, log),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start Server
	go func() {
		log.Info("starting server", zap.String("port", cfg.Port), zap.String("database", cfg.DatabaseDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
