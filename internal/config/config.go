package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend string // "memory", "sqlite" or "firestore"
	SQLiteDSN      string
	UseMockLLM     bool // true = use mock even on GCP
	SeedCatalog    bool // insert the sample personas when the catalog is empty
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load reads a local .env (if any) plus the environment and builds the config.
func Load() *Config {
	_ = godotenv.Load()

	modeStr := getEnv("PERSONA_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("PERSONA_PORT", "8080"),

		GCPProjectID: getEnv("PERSONA_GCP_PROJECT", ""),
		GCPLocation:  getEnv("PERSONA_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("PERSONA_MODEL_NAME", "gemini-2.5-flash-lite"),

		StorageBackend: getEnv("PERSONA_STORAGE_BACKEND", "memory"),
		SQLiteDSN:      getEnv("PERSONA_SQLITE_DSN", "persona-chat.db"),
		UseMockLLM:     getBoolEnv("PERSONA_USE_MOCK_LLM", mode == ModeLocal),
		SeedCatalog:    getBoolEnv("PERSONA_SEED_CATALOG", true),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("PERSONA_GCP_PROJECT must be set in gcp mode")
	}

	return cfg
}
