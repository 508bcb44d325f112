package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/healthyfy/backend/config"
	httpDelivery "github.com/healthyfy/backend/internal/delivery/http"
	"github.com/healthyfy/backend/internal/domain"
	"github.com/healthyfy/backend/internal/infrastructure/cache"
	"github.com/healthyfy/backend/internal/infrastructure/catalog"
	"github.com/healthyfy/backend/internal/infrastructure/embedding"
	"github.com/healthyfy/backend/internal/infrastructure/store"
	"github.com/healthyfy/backend/internal/infrastructure/transcribe"
	"github.com/healthyfy/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting HealthyFy Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	foodCatalog := catalog.Load(cfg.Catalog.CSVPath)

	sqliteStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqliteStore.Close()
	log.Printf("Database: %s", cfg.Database.Path)

	memoryCache := cache.NewMemoryCache()
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	// The embedder is optional: when it is disabled or misconfigured the
	// parser runs in keyword mode.
	var embedder domain.Embedder
	if cfg.Embedding.Enabled {
		ollamaEmbedder, err := embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL)
		if err != nil {
			log.Printf("WARNING: embedding backend misconfigured, keyword matching only: %v", err)
		} else {
			embedder = ollamaEmbedder
			log.Printf("Embedding: %s via %s", cfg.Embedding.Model, cfg.Embedding.BaseURL)
		}
	} else {
		log.Printf("Embedding disabled, keyword matching only")
	}

	// The transcriber is optional too: without a base URL the speech
	// endpoint answers 503.
	var transcriber domain.Transcriber
	if cfg.Whisper.BaseURL != "" {
		whisperClient := transcribe.NewClient(
			cfg.Whisper.BaseURL,
			cfg.Whisper.Model,
			cfg.Whisper.Timeout,
			cfg.RateLimit.Whisper,
		)
		if cfg.Server.Environment == "development" {
			whisperClient.SetDebug(true)
		}
		transcriber = whisperClient
		log.Printf("Whisper: %s via %s", cfg.Whisper.Model, cfg.Whisper.BaseURL)
	} else {
		log.Printf("WARNING: Whisper base URL not configured - speech endpoint disabled")
	}

	// Initialize usecase layer
	parser := usecase.NewFoodParserService(
		context.Background(),
		foodCatalog,
		embedder,
		memoryCache,
		usecase.FoodParserConfig{
			CacheTTL:           cfg.Cache.TTL,
			EnableDebugLogging: cfg.Server.Environment == "development",
		},
	)
	log.Printf("Food parser mode: %s", parser.Mode())

	predictor := usecase.NewPredictionService(
		sqliteStore,
		foodCatalog,
		usecase.PredictionServiceConfig{
			EnableDebugLogging: cfg.Server.Environment == "development",
		},
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(parser, predictor, sqliteStore, sqliteStore, foodCatalog, transcriber)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
