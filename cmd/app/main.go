package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wichananm65/portfolio-backend/internal/asset"
	"github.com/wichananm65/portfolio-backend/internal/auth"
	"github.com/wichananm65/portfolio-backend/internal/config"
	"github.com/wichananm65/portfolio-backend/internal/contact"
	"github.com/wichananm65/portfolio-backend/internal/database"
	"github.com/wichananm65/portfolio-backend/internal/logging"
	"github.com/wichananm65/portfolio-backend/internal/project"
	"github.com/wichananm65/portfolio-backend/internal/server"
	"github.com/wichananm65/portfolio-backend/internal/user"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.NewJSON(os.Stdout, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the handle is opened on first use; warm it up without blocking start-up
	db := database.NewCache(database.Postgres(cfg.DatabaseURL, cfg.DBConnectTimeout))
	defer db.Close()
	go func() {
		if _, err := db.DB(ctx); err != nil {
			log.Warn(ctx, "database warm-up failed", "error", err)
		}
	}()

	assets, err := asset.NewS3Store(ctx, cfg.S3)
	if err != nil {
		log.Error(ctx, "asset store init failed", "error", err)
		os.Exit(1)
	}

	app := server.New(server.Deps{
		Logger:           log,
		Users:            user.NewPostgresRepository(db),
		Projects:         project.NewPostgresRepository(db),
		Contacts:         contact.NewPostgresRepository(db),
		Assets:           assets,
		Tokens:           auth.NewTokenService(cfg.JWTSecret),
		AdminEmail:       cfg.AdminEmail,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		BodyLimit:        cfg.BodyLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.Addr)
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "server stopped", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "shutdown failed", "error", err)
	}
}
