package config

import (
	"os"
)

type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string
	CORSOrigin  string
	// Profile scopes every persisted key and the sync channel, so one
	// Redis or Postgres can host several independent classes.
	Profile    string
	AdminEmail string
	// Meilisearch Configuration
	MeiliURL       string
	MeiliMasterKey string
	// Gemini Configuration - empty key disables the AI gateway, every call
	// then resolves to its fallback value.
	GeminiAPIKey string
	GeminiModel  string
}

func Load() Config {
	return Config{
		Addr:           getenv("API_ADDR", ":8686"),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		RedisURL:       getenv("REDIS_URL", "redis://localhost:6379/0"),
		CORSOrigin:     getenv("CLASSNET_CORS_ORIGIN", "*"),
		Profile:        getenv("CLASSNET_PROFILE", "default"),
		AdminEmail:     getenv("CLASSNET_ADMIN_EMAIL", "techbyrehan123@gmail.com"),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		GeminiAPIKey:   getenv("GEMINI_API_KEY", ""),
		GeminiModel:    getenv("GEMINI_MODEL", "gemini-3-flash-preview"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
