package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/krishkalaria12/snap-gallery/auth"
	"github.com/krishkalaria12/snap-gallery/batches"
	"github.com/krishkalaria12/snap-gallery/config"
	"github.com/krishkalaria12/snap-gallery/database"
	"github.com/krishkalaria12/snap-gallery/gallery"
	"github.com/krishkalaria12/snap-gallery/generation"
	handler "github.com/krishkalaria12/snap-gallery/handlers"
	"github.com/krishkalaria12/snap-gallery/logger"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/router"
	"github.com/krishkalaria12/snap-gallery/storage"
	"github.com/krishkalaria12/snap-gallery/tracer"
	"github.com/krishkalaria12/snap-gallery/views"
	"gorm.io/gorm"
)

const module = "main"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer appLog.Sync()

	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, cfg.App.OtelEndpoint, appLog)
	defer shutdownTracer(context.Background())

	ctx := context.Background()

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLog.Error(module, "error closing the database connection", map[string]interface{}{"error": err})
		}
	}()

	// Run migrations
	if err := database.MigrateModels(db, &models.User{}, &models.GalleryImage{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store, closeStore, err := openGalleryStore(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to open gallery store: %v", err)
	}
	defer closeStore()

	bucket, closeBucket, err := openBucket(ctx, cfg, appLog)
	if err != nil {
		log.Fatalf("Failed to open bucket: %v", err)
	}
	defer closeBucket()

	httpClient := &http.Client{Timeout: cfg.App.HTTPClientTimeout}

	catalog := generation.NewCatalog()
	fal := generation.NewFalClient(cfg.Generation.FalBaseURL, cfg.Generation.FalKey, httpClient)
	for _, m := range generation.DefaultModels {
		catalog.Register(m, fal)
	}
	if cfg.Generation.GeminiAPIKey != "" {
		gemini, err := generation.NewGeminiGenerator(ctx, cfg.Generation.GeminiAPIKey, bucket)
		if err != nil {
			log.Fatalf("Failed to create Gemini generator: %v", err)
		}
		catalog.Register(generation.GeminiModel(cfg.Generation.GeminiModel), gemini)
	}

	authSvc := auth.NewService(auth.Options{
		Secret:             cfg.Auth.JWTSecret,
		Issuer:             cfg.Auth.Issuer,
		URL:                cfg.App.BaseURL,
		AvatarPath:         cfg.Auth.AvatarPath,
		TokenDuration:      cfg.Auth.TokenDuration,
		CookieDuration:     cfg.Auth.CookieDuration,
		SecureCookies:      cfg.IsProduction(),
		GoogleClientID:     cfg.Auth.GoogleClientID,
		GoogleClientSecret: cfg.Auth.GoogleClientSecret,
	}, db)

	renderer, err := views.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	loginURL := ""
	if cfg.Auth.GoogleClientID != "" {
		loginURL = "/auth/google/login?from=/"
	}

	h := handler.New(handler.Deps{
		Auth:          authSvc,
		Gallery:       gallery.NewService(store, bucket, httpClient, appLog, gallery.WithAllowedHosts(imageSourceHosts(cfg)...)),
		Generator:     generation.NewOrchestrator(catalog, appLog),
		Batches:       batches.NewStore(cfg.App.BatchTTL),
		Views:         renderer,
		Log:           appLog,
		Client:        httpClient,
		LoginURL:      loginURL,
		SecureCookies: cfg.IsProduction(),
	})

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, OPTIONS",
	}))
	app.Use(otelfiber.Middleware())

	router.SetupRoutes(app, h, authSvc)

	go func() {
		appLog.Info(module, "server is listening", map[string]interface{}{"port": cfg.App.Port})
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			appLog.Error(module, "server stopped", map[string]interface{}{"error": err})
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.Error(module, "error shutting down server", map[string]interface{}{"error": err})
	}
}

// openGalleryStore picks the record backend named by GALLERY_STORE.
func openGalleryStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (gallery.Store, func(), error) {
	if cfg.Database.Store != "mongo" {
		return gallery.NewGormStore(db), func() {}, nil
	}

	client, err := database.ConnectMongo(ctx, cfg.Database.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	store := gallery.NewMongoStore(client.Database(cfg.Database.MongoDatabase))
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return store, func() { _ = client.Disconnect(context.Background()) }, nil
}

// imageSourceHosts is the configured list plus the host the bucket serves
// staged images from.
func imageSourceHosts(cfg *config.Config) []string {
	hosts := append([]string(nil), cfg.Generation.ImageSourceHosts...)
	if cfg.Storage.Backend == "s3" {
		for _, raw := range []string{cfg.Storage.S3PublicBaseURL, cfg.Storage.S3Endpoint} {
			if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
				hosts = append(hosts, u.Hostname())
			}
		}
	}
	return hosts
}

// openBucket picks the blob backend named by BLOB_BACKEND.
func openBucket(ctx context.Context, cfg *config.Config, appLog logger.ILogger) (storage.Bucket, func(), error) {
	if cfg.Storage.Backend == "s3" {
		bucket, err := storage.NewS3Bucket(ctx, storage.S3Options{
			Bucket:        cfg.Storage.S3Bucket,
			Region:        cfg.Storage.S3Region,
			Endpoint:      cfg.Storage.S3Endpoint,
			AccessKey:     cfg.Storage.S3AccessKey,
			SecretKey:     cfg.Storage.S3SecretKey,
			PublicBaseURL: cfg.Storage.S3PublicBaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return bucket, func() {}, nil
	}

	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "./credentials.json")
	}

	bucket, err := storage.NewGCSBucket(ctx, cfg.Storage.GCSProjectID, cfg.Storage.GCSBucket)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Storage.GCSMakePublic {
		if err := bucket.MakePublic(ctx); err != nil {
			appLog.Warn(module, "could not make bucket public", map[string]interface{}{"error": err.Error()})
		}
	}
	return bucket, func() { _ = bucket.Close() }, nil
}
