package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auth_api/internal/auth"
	"auth_api/internal/config"
	"auth_api/internal/handler"
	"auth_api/internal/hasher"
	"auth_api/internal/service"
	"auth_api/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const shutdownTimeout = 10 * time.Second

func main() {
	//PARSE ARGS
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")

	flag.Parse()
	if configPath == "" {
		log.Fatal("failed get config path from flags")
	}

	cfg := config.MustLoadConfig(configPath)

	//INIT LOGGER
	lgr := setupLogger(cfg.Env)
	lgr.Info("started auth api", slog.String("env", cfg.Env))

	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}

	//INIT DB
	if err := storage.RunMigrations(cfg.DB.DbURL); err != nil {
		lgr.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	st, err := storage.NewPostgresStorage(cfg.DB.DbURL)
	if err != nil {
		lgr.Error("failed to init storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	//INIT SERVER
	tokens := auth.NewTokenService(cfg.JWT)
	srvc := service.NewService(st, hasher.NewBcrypt(), tokens)
	router := handler.NewHandler(srvc, tokens, lgr).InitRoutes()

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Error("server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	lgr.Info("listening", slog.String("address", cfg.Address))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	lgr.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lgr.Error("failed to shutdown server", slog.Any("error", err))
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
