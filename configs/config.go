// config.go - Configuration loaded from environment variables

package configs

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/bosocmputer/account_statement_ai/internal/common"
)

var (
	// Text-completion provider: "gemini" or "openai"
	LLM_PROVIDER string

	// Gemini AI Configuration
	GEMINI_API_KEY string
	MODEL_NAME     string

	// OpenAI Configuration (via langchaingo)
	OPENAI_API_KEY  string
	OPENAI_MODEL    string
	OPENAI_BASE_URL string

	// Sampling and consensus settings
	LLM_TEMPERATURE           float64
	LLM_MAX_ATTEMPTS          int
	LLM_VERIFICATION_ATTEMPTS int
	LLM_RATE_LIMIT            int // burst size of the completion rate limiter
	LLM_RATE_INTERVAL_SECONDS int // seconds between token refills

	// Server Configuration
	PORT            string
	ALLOWED_ORIGINS string
	GIN_MODE        string
	LOG_LEVEL       string

	// PDF rasterizer and OCR settings
	POPPLER_PATH  string
	OCR_DPI       int
	OCR_LANGUAGES []string
	OCR_PSM       int

	// AWS Textract (optional, enabled only when both keys are present)
	AWS_ACCESS_KEY_ID     string
	AWS_SECRET_ACCESS_KEY string
	AWS_REGION            string

	// Image preprocessing settings
	ENABLE_IMAGE_PREPROCESSING bool
	MAX_IMAGE_DIMENSION        int

	// Accounting map reference data sources (file first, then MongoDB, then built-in)
	ACCOUNTING_MAP_FILE         string
	MONGO_URI                   string
	MONGO_DB_NAME               string
	MONGO_ACCOUNTING_COLLECTION string

	// Statement heuristics (business assumptions, not accounting law)
	INVOICE_CASH_RATIO          float64
	BILL_CASH_RATIO             float64
	INVENTORY_COST_RATIO        float64
	OTHER_INCOME_THRESHOLD      float64
	OPERATING_EXPENSE_THRESHOLD float64
	NON_CASH_EXPENSE_RATIO      float64
)

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	LLM_PROVIDER = strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))

	GEMINI_API_KEY = getEnv("GEMINI_API_KEY", "")
	MODEL_NAME = getEnv("MODEL_NAME", "gemini-2.5-flash")

	OPENAI_API_KEY = getEnv("OPENAI_API_KEY", "")
	OPENAI_MODEL = getEnv("OPENAI_MODEL", "gpt-4")
	OPENAI_BASE_URL = getEnv("OPENAI_BASE_URL", "")

	LLM_TEMPERATURE = getEnvFloat("LLM_TEMPERATURE", 0.1)
	LLM_MAX_ATTEMPTS = getEnvInt("LLM_MAX_ATTEMPTS", 3)
	LLM_VERIFICATION_ATTEMPTS = getEnvInt("LLM_VERIFICATION_ATTEMPTS", 2)
	LLM_RATE_LIMIT = getEnvInt("LLM_RATE_LIMIT", 12)
	LLM_RATE_INTERVAL_SECONDS = getEnvInt("LLM_RATE_INTERVAL_SECONDS", 5)

	PORT = getEnv("PORT", "8000")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")
	GIN_MODE = getEnv("GIN_MODE", "debug")
	LOG_LEVEL = getEnv("LOG_LEVEL", "info")

	POPPLER_PATH = getEnv("POPPLER_PATH", "")
	OCR_DPI = getEnvInt("OCR_DPI", 150)
	OCR_LANGUAGES = getEnvList("OCR_LANGUAGES", []string{"eng", "nld"})
	OCR_PSM = getEnvInt("OCR_PSM", 6)

	AWS_ACCESS_KEY_ID = getEnv("AWS_ACCESS_KEY_ID", "")
	AWS_SECRET_ACCESS_KEY = getEnv("AWS_SECRET_ACCESS_KEY", "")
	AWS_REGION = getEnv("AWS_REGION", "ap-south-1")

	ENABLE_IMAGE_PREPROCESSING = getEnvBool("ENABLE_IMAGE_PREPROCESSING", true)
	MAX_IMAGE_DIMENSION = getEnvInt("MAX_IMAGE_DIMENSION", 2500)

	ACCOUNTING_MAP_FILE = getEnv("ACCOUNTING_MAP_FILE", "")
	MONGO_URI = getEnv("MONGO_URI", "")
	MONGO_DB_NAME = getEnv("MONGO_DB_NAME", "accounting")
	MONGO_ACCOUNTING_COLLECTION = getEnv("MONGO_ACCOUNTING_COLLECTION", "accounting_map")

	INVOICE_CASH_RATIO = getEnvFloat("INVOICE_CASH_RATIO", 0.7)
	BILL_CASH_RATIO = getEnvFloat("BILL_CASH_RATIO", 0.6)
	INVENTORY_COST_RATIO = getEnvFloat("INVENTORY_COST_RATIO", 0.8)
	OTHER_INCOME_THRESHOLD = getEnvFloat("OTHER_INCOME_THRESHOLD", 1000)
	OPERATING_EXPENSE_THRESHOLD = getEnvFloat("OPERATING_EXPENSE_THRESHOLD", 500)
	NON_CASH_EXPENSE_RATIO = getEnvFloat("NON_CASH_EXPENSE_RATIO", 0.2)

	log.Info().Str("provider", LLM_PROVIDER).Msg("✓ Configuration loaded successfully")
}

// Validate checks the settings that must be present before any request is served
func Validate() error {
	switch LLM_PROVIDER {
	case "gemini":
		if GEMINI_API_KEY == "" {
			return &common.ConfigurationError{Setting: "GEMINI_API_KEY", Reason: "required when LLM_PROVIDER=gemini"}
		}
	case "openai":
		if OPENAI_API_KEY == "" {
			return &common.ConfigurationError{Setting: "OPENAI_API_KEY", Reason: "required when LLM_PROVIDER=openai"}
		}
	default:
		return &common.ConfigurationError{Setting: "LLM_PROVIDER", Reason: "unsupported provider " + strconv.Quote(LLM_PROVIDER) + " (supported: gemini, openai)"}
	}

	if LLM_MAX_ATTEMPTS < 1 {
		return &common.ConfigurationError{Setting: "LLM_MAX_ATTEMPTS", Reason: "must be at least 1"}
	}
	return nil
}

// TextractEnabled reports whether cloud document OCR credentials are configured
func TextractEnabled() bool {
	return AWS_ACCESS_KEY_ID != "" && AWS_SECRET_ACCESS_KEY != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a "+" or "," separated value, e.g. OCR_LANGUAGES=eng+nld
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '+' || r == ',' })
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}
