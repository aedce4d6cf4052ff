package main

import (
	"bookcourier/internal/api"        // HTTP handlers
	"bookcourier/internal/config"     // Custom package for configuration
	"bookcourier/internal/db"         // Database connection and migrations
	"bookcourier/internal/media"      // Image storage
	"bookcourier/internal/middleware" // Custom package for middleware
	"bookcourier/internal/payment"    // Checkout gateway
	"context"                         // context package is needed for Redis operations
	"errors"                          // Server close detection
	"net/http"                        // HTTP server
	"os/signal"                       // Shutdown on interrupt
	"syscall"                         // Signal numbers
	"time"                            // Timeouts and CORS cache age

	"github.com/gin-contrib/cors"  // CORS middleware
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// shutdownTimeout bounds how long in-flight requests may run after a signal
const shutdownTimeout = 15 * time.Second

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the database and bring the schema up to date
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup Redis client, caching stays off without an address
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	}

	// Token verification: Firebase ID tokens, or tokens issued by /auth/login
	var verifier middleware.TokenVerifier
	jwtSecret := ""
	switch cfg.AuthMode {
	case "jwt":
		if cfg.JWTSecret == "" {
			logrus.Fatal("JWT_SECRET is required when AUTH_MODE=jwt")
		}
		verifier = middleware.JWTVerifier{Secret: cfg.JWTSecret}
		jwtSecret = cfg.JWTSecret
	default:
		fv, err := middleware.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
		if err != nil {
			logrus.Fatalf("failed to initialise Firebase: %v", err)
		}
		verifier = fv
	}

	// Checkout gateway
	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, cfg.ClientURL, nil)
	} else {
		logrus.Warn("STRIPE_SECRET_KEY not set, checkouts complete immediately")
		gateway = payment.NewMemoryGateway(cfg.Currency, cfg.ClientURL)
	}

	// Optional server-side image storage
	var uploader media.Uploader
	if cfg.S3Bucket != "" {
		s3, err := media.NewS3(ctx, media.S3Config{
			Bucket:    cfg.S3Bucket,    // Bucket name
			Region:    cfg.S3Region,    // Bucket region
			Endpoint:  cfg.S3Endpoint,  // Custom endpoint
			AccessKey: cfg.S3AccessKey, // Static credentials
			SecretKey: cfg.S3SecretKey, // Static credentials
			BaseURL:   cfg.S3BaseURL,   // Public URL prefix
		})
		if err != nil {
			logrus.Fatalf("failed to configure S3: %v", err)
		}
		uploader = s3
	}

	hub := api.NewHub(cfg.CORSOrigins) // Order event feed
	go hub.Run(ctx)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.New() // Gin router instance
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.RegisterRoutes(r, api.Deps{
		DB:        gdb,         // Primary store
		Redis:     redisClient, // Cache
		Verifier:  verifier,    // Bearer token verification
		Payments:  gateway,     // Checkout
		Uploader:  uploader,    // Image storage
		Hub:       hub,         // Order events
		JWTSecret: jwtSecret,   // Local accounts
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort, // Listen on cfg.AppPort
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logrus.WithFields(logrus.Fields{"port": cfg.AppPort, "auth": cfg.AuthMode, "db": cfg.DBDriver}).Info("Server running")

	select {
	case err := <-errCh:
		logrus.Fatalf("server stopped: %v", err)
	case <-ctx.Done():
	}

	// Drain in-flight requests before exiting
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
		return
	}
	logrus.Info("Server stopped")
}
