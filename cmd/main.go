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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"snippet-sharing-server/config"
	"snippet-sharing-server/internal/handler"
	"snippet-sharing-server/internal/metrics"
	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/notifier"
	"snippet-sharing-server/internal/ports"
	"snippet-sharing-server/internal/repository"
	"snippet-sharing-server/internal/security"
	"snippet-sharing-server/internal/service"
	"snippet-sharing-server/internal/util"
	"snippet-sharing-server/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.InitLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Database.MigrateOnStart {
		if err := config.RunMigrations(cfg.Database.DSN); err != nil {
			logger.Fatal("Не удалось применить миграции", zap.Error(err))
		}
	}

	db, err := config.SetupDatabase(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("Ошибка при закрытии БД", zap.Error(err))
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.Redis)
	if err != nil {
		logger.Fatal("Ошибка подключения к Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Ошибка при закрытии Redis", zap.Error(err))
		}
	}()

	docStore, closeDocStore, err := setupDocumentStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Ошибка подключения к хранилищу документов", zap.Error(err))
	}
	defer closeDocStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	tokenRepos := make(map[model.TokenKind]*repository.TokenRepository, len(model.TokenKinds))
	cleanupRepos := make([]ports.ExpiringTokenRepository, 0, len(model.TokenKinds))
	for _, kind := range model.TokenKinds {
		repo, err := repository.NewTokenRepository(kind)
		if err != nil {
			logger.Fatal("Ошибка создания репозитория токенов", zap.Error(err))
		}
		tokenRepos[kind] = repo
		cleanupRepos = append(cleanupRepos, repo)
	}

	userRepo := repository.NewUserRepository()
	snippetRepo := repository.NewSnippetRepository()
	tagRepo := repository.NewTagRepository()
	revocations := repository.NewRevocationRepository(redisClient)

	jwtService := security.NewJWTService(&cfg.JWT, revocations)

	sessionService := service.NewSessionService(
		userRepo, tokenRepos[model.TokenKindRefresh], jwtService, revocations, db, logger, recorder,
	)
	snippetService := service.NewSnippetService(
		snippetRepo, service.NewTagSynchronizer(tagRepo), docStore, db, logger, recorder,
	)
	userService := service.NewUserService(
		userRepo,
		tokenRepos[model.TokenKindActivation],
		tokenRepos[model.TokenKindPasswordReset],
		sessionService,
		notifier.NewWebhookNotifier(&cfg.Webhook, logger),
		db,
		cfg.Tokens,
		logger,
	)

	limiter := handler.NewLoginRateLimiter(cfg.RateLimit)
	defer limiter.Stop()

	srv, router := config.SetupServer(cfg.Server.Addr)
	handler.SetupRoutes(router, handler.Handlers{
		Auth:     handler.NewAuthenticationHandler(sessionService, userService),
		Users:    handler.NewUserHandler(userService),
		Snippets: handler.NewSnippetHandler(snippetService),
		JWT:      jwtService,
		Limiter:  limiter,
		Metrics:  metrics.Handler(registry),
	})

	cleanup := worker.NewCleanup(cleanupRepos, tagRepo, db, logger, recorder)
	go cleanup.Start(ctx, cfg.Cleanup.IntervalDuration())

	runServer(ctx, srv, logger, cfg.Server.ShutdownTimeoutDuration())
}

// setupDocumentStore : выбирает хранилище содержимого сниппетов по documentStore.backend
func setupDocumentStore(ctx context.Context, cfg *config.AppConfig) (ports.DocumentStore, func(), error) {
	switch cfg.DocumentStore.Backend {
	case config.DocumentBackendS3:
		store, err := repository.NewS3DocumentRepository(ctx, &cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		client, err := config.NewMongoClient(ctx, &cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				zap.L().Warn("Ошибка при отключении от MongoDB", zap.Error(err))
			}
		}
		return repository.NewMongoDocumentRepository(client, &cfg.Mongo), closeFn, nil
	}
}

func runServer(ctx context.Context, server *http.Server, logger *zap.Logger, shutdownTimeout time.Duration) {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("сервер запущен", zap.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ошибка работы сервера", zap.Error(err))
			return
		}
	case sig := <-signalChannel:
		logger.Info("получен сигнал остановки работы сервера", zap.String("signal", sig.String()))
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, shutdownTimeout)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		logger.Error("ошибка при остановке сервера", zap.Error(err))
	} else {
		logger.Info("Сервер успешно остановлен")
	}
}
