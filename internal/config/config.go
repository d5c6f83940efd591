package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string
	MongoURL   string
	MongoDB    string
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CORSOrigin string
	// Redis Configuration
	RedisURL string
	// SMTP Configuration
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	// AI completion service (Groq, OpenAI-compatible)
	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string
	GroqTimeout time.Duration
	// Media blob store (S3-compatible)
	MediaEndpoint  string
	MediaAccessKey string
	MediaSecretKey string
	MediaBucket    string
	MediaUseSSL    bool
	// Search
	MeiliURL       string
	MeiliMasterKey string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		Addr:       getenv("API_ADDR", ":5000"),
		MongoURL:   getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:    getenv("MONGODB_DATABASE", "plantpal"),
		JWTSecret:  getenv("PLANTPAL_JWT_SECRET", "plantpal-dev-secret"),
		AccessTTL:  time.Duration(getenvInt("PLANTPAL_ACCESS_TTL_SECONDS", 86400)) * time.Second,
		RefreshTTL: time.Duration(getenvInt("PLANTPAL_REFRESH_TTL_SECONDS", 2592000)) * time.Second,
		CORSOrigin: getenv("PLANTPAL_CORS_ORIGIN", "*"),
		// Redis - refresh token storage; empty disables refresh sessions
		RedisURL: getenv("REDIS_URL", "redis://localhost:6379/0"),
		// SMTP - empty by default, mailer disabled if not configured
		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUsername: getenv("EMAIL_USER", ""),
		SMTPPassword: getenv("EMAIL_PASS", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),
		SMTPFromName: getenv("SMTP_FROM_NAME", "PlantPal"),
		// Groq
		GroqAPIKey:  getenv("GROQ_API_KEY", ""),
		GroqBaseURL: getenv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:   getenv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqTimeout: time.Duration(getenvInt("GROQ_TIMEOUT_SECONDS", 30)) * time.Second,
		// Media - empty endpoint disables uploads
		MediaEndpoint:  getenv("MEDIA_ENDPOINT", ""),
		MediaAccessKey: getenv("MEDIA_ACCESS_KEY", ""),
		MediaSecretKey: getenv("MEDIA_SECRET_KEY", ""),
		MediaBucket:    getenv("MEDIA_BUCKET", "plantpal-uploads"),
		MediaUseSSL:    getenvBool("MEDIA_USE_SSL", true),
		// Meilisearch - empty URL disables indexed search
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
