package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/stagepass/paywidget/handler"
	"github.com/stagepass/paywidget/infra/config"
	"github.com/stagepass/paywidget/infra/logger"
	"github.com/stagepass/paywidget/infra/middle"
	"github.com/stagepass/paywidget/infra/opensearch"
	"github.com/stagepass/paywidget/infra/response"
	"github.com/stagepass/paywidget/widget"
	v1 "github.com/stagepass/paywidget/router/v1"
)

var (
	PORT             string
	openSearchClient *opensearch.Client
	openSearchLogger *opensearch.Logger
)

func init() {
	// Load Env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Load Env: %v (continuing with process environment)", err)
	}
	// init conf
	_ = config.App()

	PORT = config.GetEnv("APP_PORT", "9999")

	// Initialize OpenSearch client and logger
	cfg := config.GetAppConfig()
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			openSearchClient = osClient
			openSearchLogger = opensearch.NewLogger(osClient)
			log.Println("OpenSearch logging initialized successfully")
		}
	} else {
		log.Println("OpenSearch logging is disabled")
	}

	logger.InitGlobalLogger(openSearchLogger)
}

func main() {
	// Load vendor credential configurations
	vendorConfig := config.NewVendorConfig()
	vendorConfig.LoadFromEnv()
	defer vendorConfig.Close()

	// Fail fast on broken vendor credentials: a bad snapshot must never be
	// handed to a checkout page.
	for _, vendorName := range vendorConfig.GetAvailableVendors() {
		adapter, err := widget.CreateAdapter(vendorName)
		if err != nil {
			log.Printf("Vendor %s is configured but not registered: %v", vendorName, err)
			continue
		}

		conf, err := vendorConfig.GetConfig(vendorName)
		if err != nil {
			log.Fatalf("Failed to get configuration for vendor %s: %v", vendorName, err)
		}

		if _, err := adapter.ParseCredentials(conf); err != nil {
			log.Fatalf("Invalid credentials for vendor %s: %v", vendorName, err)
		}

		log.Printf("Registered widget vendor: %s", vendorName)
	}

	healthHandler := handler.NewHealthHandler(vendorConfig, openSearchClient)

	// Chi Define Routes
	r := chi.NewRouter()

	// Basic Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middleware.Timeout(60 * time.Second))

	// Security Middleware
	rateLimiter := middle.NewRateLimiter()
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.IPWhitelistMiddleware())
	r.Use(middle.RateLimitMiddleware(rateLimiter))
	r.Use(middle.RequestValidationMiddleware())

	// CORS: checkout pages call this service from merchant origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "Content-Length", "Access-Control-Allow-Origin"},
		AllowCredentials: true,
		MaxAge:           300, // Preflight cache time (second)
	}))

	// Health check endpoints (no auth required)
	r.Get("/health", healthHandler.CheckHealth)
	r.Get("/health/live", healthHandler.Liveness)

	// API routes with authentication
	r.Route("/v1", func(r chi.Router) {
		// Add authentication middleware only to API routes
		r.Use(middle.AuthMiddleware())

		// Import v1 routes
		v1.Routes(r, vendorConfig, openSearchLogger)
	})

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusNotFound, response.Response{Success: false, Message: "Not Found"})
	})

	// Create a context that listens for interrupt and terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run your HTTP server in a goroutine
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", PORT),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err.Error())
		}
	}()

	log.Println("API is running on", PORT)

	// Block until a signal is received
	<-ctx.Done()

	log.Println("API is shutting on", PORT)
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
