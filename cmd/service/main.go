package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/instagrab/instagrab-backend/docs"
	"github.com/instagrab/instagrab-backend/internal/client/instagram"
	"github.com/instagrab/instagrab-backend/internal/config"
	"github.com/instagrab/instagrab-backend/internal/downloader"
	posthandler "github.com/instagrab/instagrab-backend/internal/handler/post"
	postservice "github.com/instagrab/instagrab-backend/internal/service/post"
	miniostorage "github.com/instagrab/instagrab-backend/internal/storage/minio"
)

// @title        instagrab-backend API
// @version      1.0
// @description  Fetches Instagram posts and stores their media in object storage.
// @BasePath     /
func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Подключение к объектному хранилищу
	store, err := miniostorage.NewProvider(miniostorage.Config{
		Endpoint:      cfg.MinioEndpoint,
		AccessKey:     cfg.MinioAccessKey,
		SecretKey:     cfg.MinioSecretKey,
		Bucket:        cfg.MinioBucket,
		UseSSL:        cfg.MinioUseSSL,
		PublicBaseURL: cfg.MinioPublicBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to create storage provider: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.EnsureBucket(startupCtx); err != nil {
		log.Fatalf("Failed to ensure storage bucket: %v", err)
	}
	log.Printf("Object storage connected: %s, bucket %q", store.Endpoint(), cfg.MinioBucket)

	// Инициализация клиента Instagram
	igClient, err := instagram.NewClient(instagram.Config{
		BaseURL:  cfg.InstagramBaseURL,
		Username: cfg.InstagramUsername,
		Password: cfg.InstagramPassword,
		Timeout:  cfg.UpstreamTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create instagram client: %v", err)
	}

	// Логин не обязателен: публичные посты доступны и без сессии
	if cfg.InstagramUsername != "" {
		if err := igClient.Login(startupCtx); err != nil {
			logger.Warn("instagram login failed, continuing unauthenticated",
				"auth_status", "anonymous",
				"error", err,
			)
		}
	}

	// Инициализация сервиса и хендлера
	dl := downloader.NewHTTPDownloader(cfg.DownloadTimeout)
	fetchService := postservice.NewService(igClient, dl, store, postservice.Timeouts{
		Upstream: cfg.UpstreamTimeout,
		Download: cfg.DownloadTimeout,
		Upload:   cfg.UploadTimeout,
	}, logger)
	postHandler := posthandler.NewPostHandler(fetchService, logger)

	// Создание роутера
	r := chi.NewRouter()

	// Базовые middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/hello", postHandler.Hello)
	r.Post("/api/fetch-post", postHandler.FetchPost)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Запуск сервера с корректной обработкой graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Запуск сервера в горутине
	go func() {
		log.Printf("Server is starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on port %s: %v\n", cfg.ServerPort, err)
		}
	}()

	// Канал для обработки сигналов завершения
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Ожидание сигнала
	<-stop

	// Корректное завершение работы сервера
	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
