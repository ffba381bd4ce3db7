// Package main initializes and starts the PROTON signup server, setting up
// configuration, logging, database connections, gateways, the signup
// service, and HTTP handlers.
package main

import (
	"cmp"
	"context"
	"fmt"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/harishgurram/PROTON/internal/auth"
	"github.com/harishgurram/PROTON/internal/config"
	"github.com/harishgurram/PROTON/internal/db"
	"github.com/harishgurram/PROTON/internal/logger"
	"github.com/harishgurram/PROTON/internal/repository"
	"github.com/harishgurram/PROTON/internal/server/handler/http"
	"github.com/harishgurram/PROTON/internal/service"
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
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	names := repository.DefaultNames()
	gateways := map[string]service.Gateway{}

	// Initialize SQLite and bootstrap the registry tables. The SQLite
	// signup path assumes the bootstrap has already run.
	sqliteDB, err := db.InitSQLite(options.SQLitePath)
	if err != nil {
		zapLogger.Fatal("cannot init sqlite database", zap.Error(err))
	}
	if err := db.BootstrapSQLite(context.Background(), sqliteDB, names); err != nil {
		zapLogger.Fatal("cannot bootstrap sqlite database", zap.Error(err))
	}
	gateways["sqlite"] = repository.NewSQLiteGateway(sqliteDB, names)

	// Initialize PostgreSQL when configured. Its schema and tables are
	// provisioned lazily during signup.
	if options.PostgresDSN != "" {
		postgresDB, err := db.InitPostgres(options.PostgresDSN)
		if err != nil {
			zapLogger.Fatal("cannot init postgres database", zap.Error(err))
		}
		gateways["postgresql"] = repository.NewPostgresGateway(postgresDB, names)
	} else {
		zapLogger.Info("postgres dsn not set, postgresql flavour disabled")
	}

	// Initialize the signup service and HTTP handlers.
	signupService := service.NewSignupService(gateways, auth.Hasher{}, zapLogger)
	signupHandler := &http.SignupHandler{SignupService: signupService}

	// Build the router with middleware and routes.
	router := http.NewRouter(signupHandler, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Port,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
