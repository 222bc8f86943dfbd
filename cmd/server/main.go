// Package main initializes and starts the NoteSync server, setting up
// configuration, logging, database connections, repositories, services,
// the notification hub and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/NoteSync/internal/config"
	"github.com/atinyakov/NoteSync/internal/db"
	"github.com/atinyakov/NoteSync/internal/logger"
	"github.com/atinyakov/NoteSync/internal/models"
	"github.com/atinyakov/NoteSync/internal/notify"
	"github.com/atinyakov/NoteSync/internal/repository"
	"github.com/atinyakov/NoteSync/internal/server/handler/http"
	"github.com/atinyakov/NoteSync/internal/service"
	"github.com/atinyakov/NoteSync/internal/share"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if options.JWTSecret == "" {
		zapLogger.Fatal("JWT_SECRET must be set")
	}

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Prune stale recent-share contacts in the background.
	db.StartContactPruner(context.Background(), postgresDB,
		time.Hour,       // interval
		90*24*time.Hour, // retention: 90 days
		zapLogger,
	)

	// Initialize repositories for users and resource aggregates.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	resourceRepo := repository.NewPostgresResourceRepository(postgresDB)

	// The hub carries the per-principal and per-resource channels; the
	// router fans domain events out over it.
	hub := notify.NewHub(zapLogger)
	router := notify.NewRouter(hub, zapLogger)

	// Initialize business-logic services.
	registry := share.NewRegistry(resourceRepo, userRepo)
	authService := service.NewAuthService(userRepo, options.JWTSecret)
	notesService := service.NewResourceService(models.KindNote, resourceRepo, userRepo, registry, router, zapLogger)
	todosService := service.NewResourceService(models.KindTodo, resourceRepo, userRepo, registry, router, zapLogger)
	dashboardService := service.NewDashboardService(notesService, todosService)

	// Create the HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService}
	notesHandler := &http.ResourceHandler{Service: notesService}
	todosHandler := &http.ResourceHandler{Service: todosService}
	dashboardHandler := &http.DashboardHandler{Service: dashboardService}
	contactsHandler := &http.ContactsHandler{Store: userRepo}
	wsHandler := &http.WSHandler{Hub: hub, Log: zapLogger}

	// Build the router with middleware and routes.
	handler := http.NewRouter(
		authHandler,
		notesHandler,
		todosHandler,
		dashboardHandler,
		contactsHandler,
		wsHandler,
		options.JWTSecret,
		options.AllowedOrigin,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:    options.Address,
		Handler: handler,
	}

	zapLogger.Info("starting server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
}
