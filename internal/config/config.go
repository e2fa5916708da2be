package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string
	MaxBodySize int64

	// Per-IP rate limiting (needs Redis)
	RateLimitReqs   int
	RateLimitWindow int

	// Gemini
	GeminiAPIKey          string
	GeminiChatModel       string
	GoogleEmbeddingsModel string
	GeminiTier            string

	// Pipeline timeouts and bounds
	CompletionTimeout    time.Duration
	EmbeddingTimeout     time.Duration
	ActivityLogTimeout   time.Duration
	RetrievalTopK        int
	SnippetCharLimit     int
	HistoryWindow        int
	ConsultantOfferAfter int

	// Sessions
	SessionTTL    time.Duration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Activity log archive
	MongoURI string
	DBName   string

	// Google Sheets activity log
	SheetsSpreadsheetID string
	SheetsRange         string
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRefreshToken  string
	GoogleTokenURI      string

	// Local workbook activity log
	ActivityXLSXPath string

	// Clinic
	KnowledgeFile string
	ClinicName    string
	AssistantName string
	BookingURL    string

	// Observability
	LogFile         string
	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64
	OTelEnvironment string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		MaxBodySize: getEnvInt64("MAX_BODY_SIZE", 1<<20),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiChatModel:       getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),

		CompletionTimeout:    getEnvDuration("COMPLETION_TIMEOUT", 15*time.Second),
		EmbeddingTimeout:     getEnvDuration("EMBEDDING_TIMEOUT", 10*time.Second),
		ActivityLogTimeout:   getEnvDuration("ACTIVITY_LOG_TIMEOUT", 10*time.Second),
		RetrievalTopK:        getEnvInt("RETRIEVAL_TOP_K", 2),
		SnippetCharLimit:     getEnvInt("SNIPPET_CHAR_LIMIT", 1000),
		HistoryWindow:        getEnvInt("HISTORY_WINDOW", 6),
		ConsultantOfferAfter: getEnvInt("CONSULTANT_OFFER_AFTER", 6),

		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MongoURI: getEnv("MONGO_URI", ""),
		DBName:   getEnv("DB_NAME", "movewell_assistant"),

		SheetsSpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsRange:         getEnv("SHEETS_RANGE", "Sheet1!A1"),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken:  getEnv("GOOGLE_REFRESH_TOKEN", ""),
		GoogleTokenURI:      getEnv("GOOGLE_TOKEN_URI", "https://oauth2.googleapis.com/token"),

		ActivityXLSXPath: getEnv("ACTIVITY_XLSX_PATH", ""),

		KnowledgeFile: getEnv("KNOWLEDGE_FILE", ""),
		ClinicName:    getEnv("CLINIC_NAME", "MoveWell Physiotherapy & Rehab Centre"),
		AssistantName: getEnv("ASSISTANT_NAME", "Fysio"),
		BookingURL:    getEnv("BOOKING_URL", "https://calendly.com/movewell/initial-assessment"),

		LogFile:         getEnv("LOG_FILE", ""),
		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat64("OTEL_SAMPLE_RATIO", 0.1),
		OTelEnvironment: getEnv("OTEL_ENVIRONMENT", "production"),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.SheetsSpreadsheetID != "" && cfg.GoogleRefreshToken == "" {
		return nil, fmt.Errorf("GOOGLE_REFRESH_TOKEN is required when SHEETS_SPREADSHEET_ID is set")
	}

	if cfg.RetrievalTopK < 0 || cfg.SnippetCharLimit <= 0 || cfg.HistoryWindow < 0 {
		return nil, fmt.Errorf("RETRIEVAL_TOP_K, SNIPPET_CHAR_LIMIT and HISTORY_WINDOW must be non-negative")
	}

	return cfg, nil
}

// SheetsEnabled reports whether rows should be appended to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsSpreadsheetID != ""
}
