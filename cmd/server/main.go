// Package main initializes and starts the Slash Messenger development
// backend, setting up configuration, logging, the sqlite database,
// repositories, services, handlers, and the HTTP server.
package main

import (
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/config"
	"github.com/atinyakov/slashmsg/internal/db"
	"github.com/atinyakov/slashmsg/internal/logger"
	"github.com/atinyakov/slashmsg/internal/repository"
	"github.com/atinyakov/slashmsg/internal/server/handler/http"
	"github.com/atinyakov/slashmsg/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// orDefault returns v, or def if v is empty. It mirrors cmp.Or for
// strings; cmp.Or itself requires Go 1.22 and this module builds with
// the local Go 1.21 toolchain.
func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", orDefault(version, "N/A"))
	fmt.Printf("Build date: %s\n", orDefault(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize the sqlite database and the built-in admin account.
	conn, err := db.InitSQLite(options.DatabasePath)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	if err := db.SeedAdmin(conn); err != nil {
		zapLogger.Fatal("cannot seed admin account", zap.Error(err))
	}

	// Expired bearer tokens are removed in the background.
	db.StartTokenCleaner(context.Background(), conn,
		time.Hour,       // interval
		30*24*time.Hour, // retention: 30 days
		zapLogger,
	)

	// Initialize repositories.
	userRepo := repository.NewSQLiteUserRepository(conn)
	msgRepo := repository.NewSQLiteMessageRepository(conn)
	adminRepo := repository.NewSQLiteAdminRepository(conn)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, adminRepo)
	msgService := service.NewMessageService(msgRepo, userRepo)
	adminService := service.NewAdminService(userRepo, adminRepo)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}
	messagesHandler := &http.MessagesHandler{Messages: msgService}
	uploadHandler := &http.UploadHandler{Dir: options.UploadDir, Log: zapLogger}
	adminHandler := &http.AdminHandler{Admin: adminService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, messagesHandler, uploadHandler, adminHandler,
		authService, options.UploadDir, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
