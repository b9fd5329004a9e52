// Package main initializes and starts the NoteKeeper HTTP server,
// setting up configuration, logging, database connections, repositories,
// services and handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/NoteKeeper/internal/cache"
	"github.com/atinyakov/NoteKeeper/internal/config"
	"github.com/atinyakov/NoteKeeper/internal/db"
	"github.com/atinyakov/NoteKeeper/internal/hasher"
	"github.com/atinyakov/NoteKeeper/internal/logger"
	"github.com/atinyakov/NoteKeeper/internal/mailer"
	"github.com/atinyakov/NoteKeeper/internal/repository"
	"github.com/atinyakov/NoteKeeper/internal/server/handler/http"
	"github.com/atinyakov/NoteKeeper/internal/service"
	"github.com/atinyakov/NoteKeeper/internal/session"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	zapLogger := log.Log

	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN, db.PoolOptions{
		MaxOpenConns: options.MaxOpenConns,
		MaxIdleConns: options.MaxIdleConns,
	})
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Purge consumed invitations in the background.
	db.StartInvitationCleaner(ctx, postgresDB,
		options.CleanupInterval,
		options.InvitationRetention,
		zapLogger,
	)

	// Session revocation is only available with Redis.
	sessionOpts := []session.Option{session.WithSecure(options.Production)}
	if options.RedisAddr != "" {
		redisClient := cache.New(options.RedisAddr, options.RedisPassword, options.RedisDB, zapLogger)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			zapLogger.Warn("redis unreachable, revoked sessions stay valid until it recovers", zap.Error(err))
		}
		sessionOpts = append(sessionOpts, session.WithRevoker(session.NewRevocationStore(redisClient)))
	}

	secret := []byte(options.SecretKey)
	sessions, err := session.NewManager(secret, sessionOpts...)
	if err != nil {
		zapLogger.Fatal("cannot init sessions", zap.Error(err))
	}

	var sender mailer.Sender = mailer.LogSender{Log: zapLogger}
	if options.SMTPHost != "" {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     options.SMTPHost,
			Port:     options.SMTPPort,
			Username: options.SMTPUsername,
			Password: options.SMTPPassword,
			From:     options.SMTPFrom,
		})
	}

	// Initialize repositories.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	noteRepo := repository.NewPostgresNoteRepository(postgresDB)
	groupRepo := repository.NewPostgresGroupRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo, hasher.New(secret), sender, options.ConfirmationURL, zapLogger)
	noteService := service.NewNoteService(noteRepo, groupRepo.IsMember)
	groupService := service.NewGroupService(groupRepo)
	userService := service.NewUserService(authRepo)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.RouterDeps{
		Auth:           &http.AuthHandler{AuthService: authService, Sessions: sessions, Log: zapLogger},
		Notes:          &http.NoteHandler{NoteService: noteService, Log: zapLogger},
		Groups:         &http.GroupHandler{GroupService: groupService, Log: zapLogger},
		Users:          &http.UserHandler{UserService: userService, Log: zapLogger},
		Sessions:       sessions,
		Health:         http.Health(postgresDB, zapLogger),
		FrontendOrigin: options.FrontendAddress,
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
	<-idle
	zapLogger.Info("server stopped")
}
