package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dtg-lucifer/sahotsava-be/internal/auth"
	"github.com/dtg-lucifer/sahotsava-be/internal/config"
	"github.com/dtg-lucifer/sahotsava-be/internal/events"
	eventHandlers "github.com/dtg-lucifer/sahotsava-be/internal/http_server/handlers/events"
	"github.com/dtg-lucifer/sahotsava-be/internal/http_server/handlers/login"
	"github.com/dtg-lucifer/sahotsava-be/internal/http_server/handlers/logout"
	"github.com/dtg-lucifer/sahotsava-be/internal/http_server/handlers/refresh"
	"github.com/dtg-lucifer/sahotsava-be/internal/http_server/handlers/resend"
	"github.com/dtg-lucifer/sahotsava-be/internal/http_server/handlers/verify"
	"github.com/dtg-lucifer/sahotsava-be/internal/lib/jwt"
	sl "github.com/dtg-lucifer/sahotsava-be/internal/lib/logger"
	"github.com/dtg-lucifer/sahotsava-be/internal/middleware/authn"
	"github.com/dtg-lucifer/sahotsava-be/internal/middleware/ratelimit"
	"github.com/dtg-lucifer/sahotsava-be/internal/rabbitmq"
	"github.com/dtg-lucifer/sahotsava-be/internal/storage/postgres"
	"github.com/dtg-lucifer/sahotsava-be/internal/storage/redis"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting sahotsava backend", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	cache, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer cache.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	codec, err := jwt.NewCodec(
		cfg.Tokens.AccessTokenSecret,
		cfg.Tokens.RefreshTokenSecret,
		cfg.Tokens.AccessTokenTTL,
		cfg.Tokens.RefreshTokenTTL,
	)
	if err != nil {
		log.Error("invalid token config", sl.Err(err))
		os.Exit(1)
	}

	authService := auth.New(log, storage, storage, cache, codec, cfg.Tokens.VerificationTokenTTL)
	eventService := events.New(log, storage)

	router := setupRouter(log, authService, eventService, msgBroker, codec, cfg.BaseURL)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	eventService *events.Service,
	msgBroker *rabbitmq.RabbitMQClient,
	codec *jwt.Codec,
	baseURL string,
) *chi.Mux {
	validate := validator.New()
	guard := authn.New(log, codec)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.With(ratelimit.Login()).Post("/login", login.New(log, validate, authService))
		r.With(ratelimit.Refresh()).Post("/refresh", refresh.New(log, validate, authService))
		r.With(ratelimit.Verify()).Get("/verify", verify.New(log, authService))
		r.With(ratelimit.ResendVerification()).Post("/verify/resend",
			resend.New(log, validate, authService, msgBroker, baseURL),
		)
		r.With(guard, ratelimit.Logout()).Post("/logout", logout.New(log, authService))
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandlers.NewList(log, eventService))
		r.Get("/{id}", eventHandlers.NewGet(log, eventService))

		r.Group(func(r chi.Router) {
			r.Use(guard)
			r.Post("/", eventHandlers.NewCreate(log, validate, eventService))
			r.Put("/{id}", eventHandlers.NewUpdate(log, validate, eventService))
			r.Delete("/{id}", eventHandlers.NewDelete(log, eventService))
			r.Get("/{id}/registrations", eventHandlers.NewRegistrations(log, eventService))
			r.Post("/{id}/tickets", eventHandlers.NewIssueTicket(log, eventService))
		})
	})

	return r
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
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
