package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movewell-assistant/internal/ai"
	"movewell-assistant/internal/config"
	"movewell-assistant/internal/knowledge"
	"movewell-assistant/internal/logger"
	"movewell-assistant/internal/retrieval"
	"movewell-assistant/internal/telemetry"
	"movewell-assistant/routes"
	"movewell-assistant/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer(cfg)
	if err != nil {
		log.Fatal("Failed to initialize tracing:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracer(ctx)
	}()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	ctx := context.Background()

	gemini, err := ai.NewGeminiClient(ctx, cfg, metrics)
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer gemini.Close()

	// Embed the knowledge base once; the index is read-only afterwards
	docs, err := knowledge.Load(cfg.KnowledgeFile)
	if err != nil {
		log.Fatal("Failed to load knowledge base:", err)
	}
	embedCtx, cancelEmbed := context.WithTimeout(ctx, time.Minute)
	vectors, err := ai.EmbedAll(embedCtx, gemini, knowledge.Contents(docs))
	cancelEmbed()
	if err != nil {
		log.Fatal("Failed to embed knowledge base:", err)
	}
	index, err := retrieval.NewIndex(vectors)
	if err != nil {
		log.Fatal("Failed to build similarity index:", err)
	}
	logger.Info("Knowledge base indexed", "documents", len(docs), "dimensions", index.Dim())

	prompts := retrieval.NewPromptBuilder(gemini, index, docs, retrieval.PromptOptions{
		TopK:         cfg.RetrievalTopK,
		SnippetLimit: cfg.SnippetCharLimit,
		EmbedTimeout: cfg.EmbeddingTimeout,
	}, metrics)

	// Sessions: Redis when configured, otherwise process memory
	var rdb *redis.Client
	var store services.SessionStore
	if cfg.RedisURL != "" {
		rdb, err = config.NewRedisClient(cfg)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer rdb.Close()
		store = services.NewRedisSessionStore(rdb, cfg.SessionTTL)
	} else {
		store = services.NewMemorySessionStore(cfg.SessionTTL)
	}

	// Activity log sinks
	sinks := []services.ActivitySink{services.SlogSink{}}
	if cfg.SheetsEnabled() {
		sheetsSink, err := services.NewSheetsSink(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to create Sheets sink:", err)
		}
		sinks = append(sinks, sheetsSink)
	}
	if cfg.ActivityXLSXPath != "" {
		excelSink, err := services.NewExcelSink(cfg.ActivityXLSXPath)
		if err != nil {
			log.Fatal("Failed to open activity workbook:", err)
		}
		sinks = append(sinks, excelSink)
	}
	var mongoClient *mongo.Client
	if cfg.MongoURI != "" {
		mongoClient, err = config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()
		sinks = append(sinks, services.NewMongoSink(mongoClient.Database(cfg.DBName)))
	}
	for _, s := range sinks {
		logger.Info("Activity sink enabled", "sink", s.Name())
	}

	profile := services.ClinicProfile{
		ClinicName:    cfg.ClinicName,
		AssistantName: cfg.AssistantName,
		BookingURL:    cfg.BookingURL,
	}
	flow := services.NewChatFlow(services.ChatFlowDeps{
		Store:      store,
		Prompts:    prompts,
		Classifier: services.NewIntentClassifier(gemini, cfg.CompletionTimeout, metrics),
		Responder:  services.NewResponder(gemini, cfg.HistoryWindow, cfg.CompletionTimeout, metrics),
		Activity:   services.NewActivityLogger(cfg.ActivityLogTimeout, metrics, sinks...),
		Profile:    profile,
		OfferAfter: cfg.ConsultantOfferAfter,
		Metrics:    metrics,
	})

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := routes.NewRouter(cfg, rdb, metrics, flow, flow)
	if err != nil {
		log.Fatal("Failed to build router:", err)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
