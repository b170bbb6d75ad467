package main

import (
	"alcyxob/fitness-challenges/internal/api"
	"alcyxob/fitness-challenges/internal/config"
	"alcyxob/fitness-challenges/internal/metrics"
	"alcyxob/fitness-challenges/internal/repository"
	"alcyxob/fitness-challenges/internal/repository/mongo"
	"alcyxob/fitness-challenges/internal/repository/sqlite"
	"alcyxob/fitness-challenges/internal/service"
	"alcyxob/fitness-challenges/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// @title Fitness Challenges API
// @version 1.0
// @description Challenge lifecycle: creation, scheduling, participation, completion and peer verification.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Fitness Challenges Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Printf("Configuration loaded (database driver: %s).", cfg.Database.Driver)

	// --- Storage backend ---
	store, err := openStore(cfg.Database)
	if err != nil {
		log.Fatalf("FATAL: Could not open %s store: %v", cfg.Database.Driver, err)
	}
	defer func() {
		log.Println("Closing database...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Printf("ERROR: Failed to close database: %v", err)
		}
	}()

	// --- Evidence storage (optional) ---
	var evidenceService service.EvidenceService
	challengeService := service.NewChallengeService(store)
	if cfg.S3.BucketName != "" {
		fileStorage, err := storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
		evidenceService = service.NewEvidenceService(challengeService, fileStorage)
	} else {
		log.Println("WARN: s3.bucket_name not set, evidence upload URLs are disabled")
	}

	// --- Metrics ---
	routeCfg := api.RouteConfig{
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	}
	if cfg.Metrics.Enabled {
		metrics.Register(prometheus.DefaultRegisterer)
		routeCfg.MetricsPath = cfg.Metrics.Path
		routeCfg.Metrics = promhttp.Handler()
	}

	// --- Rate limiting ---
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if cfg.RateLimit.RPS > 0 {
		routeCfg.RateLimiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go routeCfg.RateLimiter.CleanupVisitors(bgCtx)
	}

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, routeCfg, challengeService, evidenceService)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// openStore connects the configured backend and prepares its schema or indexes.
func openStore(cfg config.DatabaseConfig) (*repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.NewDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(db), nil

	default:
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, err
		}
		appDB := client.Database(cfg.Name)
		log.Println("Database connection established.")

		log.Println("Ensuring database indexes...")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()
			mongo.EnsureIndexes(ctx, appDB)
			log.Println("Index creation process completed.")
		}()

		if cfg.Transactions {
			log.Println("MongoDB transactions enabled.")
		}
		return mongo.NewStore(client, appDB, cfg.Transactions), nil
	}
}
