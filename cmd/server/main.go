package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anonto42/microsocial/backend/internal/router"
	"github.com/anonto42/microsocial/backend/pkg/config"
	"github.com/anonto42/microsocial/backend/pkg/firebase"
	"github.com/anonto42/microsocial/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Logger().WithError(err).Fatal("Failed to load configuration")
	}
	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		logger.Logger().WithError(err).Fatal("Failed to configure logging")
	}
	log := logger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize databases")
	}
	defer db.CloseDB()

	var firebaseApp *firebase.App
	if cfg.FirebaseEnabled() {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Firebase")
		}
	}

	e := echo.New()
	e.HideBanner = true
	config.SetupMiddleware(e)

	if err := router.SetupRoutes(e, db, cfg, firebaseApp); err != nil {
		log.WithError(err).Fatal("Failed to set up routes")
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
