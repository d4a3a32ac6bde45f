package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port    string
	LogMode string

	DBDriver   string // postgres, mysql, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTKey      string
	JWTTTLHours int
	SaltRound   int
	AdminEmails []string

	SendgridAPIKey  string
	EmailSender     string
	EmailSenderName string

	RedisURL        string
	CacheTTLSeconds int

	RecommenderURL    string
	RecommenderAPIKey string

	AssistantURL    string
	AssistantAPIKey string
	AssistantModel  string

	ReconcileCron    string
	EnableDebugTools bool

	UploadDir string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = FromEnv()

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.EnableDebugTools {
		log.Println("Warning: ENABLE_DEBUG_TOOLS is on. Force-complete endpoints are reachable by debug-tools admins.")
	}
}

// FromEnv builds a Config from the current process environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		Port:    getEnv("PORT", "3000"),
		LogMode: getEnv("LOG_MODE", "development"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "ruralearn"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTKey:      getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),
		SaltRound:   getEnvInt("SALT_ROUND", 10),
		AdminEmails: getEnvList("ADMIN_EMAILS"),

		SendgridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailSender:     getEnv("EMAIL_SENDER", "noreply@ruralearn.africa"),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", "RuraLearn"),

		RedisURL:        getEnv("REDIS_URL", ""),
		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 300),

		RecommenderURL:    getEnv("RECOMMENDER_URL", ""),
		RecommenderAPIKey: getEnv("RECOMMENDER_API_KEY", ""),

		AssistantURL:    getEnv("ASSISTANT_URL", "https://api.openai.com/v1"),
		AssistantAPIKey: getEnv("ASSISTANT_API_KEY", ""),
		AssistantModel:  getEnv("ASSISTANT_MODEL", "gpt-4o"),

		ReconcileCron:    getEnv("RECONCILE_CRON", "@every 1h"),
		EnableDebugTools: getEnvBool("ENABLE_DEBUG_TOOLS", false),

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
	}
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}

// getEnvList splits a comma separated variable into lowercased, trimmed entries
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
