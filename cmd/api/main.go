package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	apihttp "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/notifications"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/redisclient"
	"github.com/geocoder89/taskhub/internal/repo/mongodb"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// tracing
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(rootCtx, "taskhub-api", cfg.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				logger.Warn("tracer shutdown failed", slog.Any("error", err))
			}
		}()
	}

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	// mongo
	mongoClient, err := db.Connect(cfg.MongoURI)

	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}

	defer func() {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect failed", slog.Any("error", err))
		}
	}()

	database := mongoClient.Database(cfg.MongoDB)

	{
		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()
		if err := db.EnsureIndexes(ctx, database); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}

	usersRepo := mongodb.NewUsersRepo(database, prom)
	tasksRepo := mongodb.NewTasksRepo(database, prom)

	// redis is optional: without it the login limiter falls back to an
	// in-process window
	var redisClient *redisclient.Client

	if cfg.RedisAddr != "" {
		redisClient = redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		ctx, cancel := config.WithTimeout(3 * time.Second)
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis unreachable at startup", slog.Any("error", err))
		}
		cancel()
	}

	var loginLimiter = middlewares.NewRateLimiter("login", cfg.LoginRateLimit, cfg.LoginRateWindow, prom).Middleware(middlewares.KeyByIP)

	if redisClient != nil {
		loginLimiter = middlewares.RedisRateLimiter(redisClient.Raw(), "login", int64(cfg.LoginRateLimit), cfg.LoginRateWindow, prom)
	}

	// notifications
	var notifier notifications.Notifier = notifications.NewLogNotifier()

	if cfg.SendGridAPIKey != "" {
		notifier = notifications.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFrom)
	}

	notifier = notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{Prom: prom})

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL())
	avatarCache := cache.New(10 * time.Minute)

	readiness := map[string]handlers.Pinger{
		"mongo": func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		},
	}

	if redisClient != nil {
		readiness["redis"] = redisClient.Ping
	}

	router := apihttp.NewRouter(apihttp.Deps{
		Cfg:  cfg,
		Prom: prom,

		Users:   handlers.NewUsers(usersRepo, tasksRepo, jwtManager, notifier, logger),
		Avatars: handlers.NewAvatars(usersRepo, avatarCache, prom),
		Tasks:   handlers.NewTasks(tasksRepo),
		Uploads: handlers.NewUploads(prom),

		Auth:         middlewares.NewAuthMiddleware(jwtManager, usersRepo),
		LoginLimiter: loginLimiter,

		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Readiness: readiness,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("api listening", slog.Int("port", cfg.Port), slog.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-rootCtx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	return nil
}
