package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr string

	StoreBackend string // "postgres" or "sqlite"
	SQLitePath   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	CacheTTLMinutes    int
	MaxResultsPerSite  int
	RateLimitMs        int
	MaxRetries         int
	HomeFeedWorkers    int
	HomeFeedTopN       int
	HomeFeedCategories []string

	CSVOutputPath string
	ChromeBin     string
}

var defaultCategories = []string{
	"smartphones", "laptops", "headphones", "tshirts", "bags", "shoes",
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":5000"),

		StoreBackend: getEnv("STORE_BACKEND", "postgres"),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/pricehub.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "pricehub"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "pricehub123"),
		PostgresDB:       getEnv("POSTGRES_DB", "pricehub"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		CacheTTLMinutes:    getEnvInt("CACHE_TTL_MINUTES", 5),
		MaxResultsPerSite:  getEnvInt("MAX_RESULTS_PER_SITE", 20),
		RateLimitMs:        getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		HomeFeedWorkers:    getEnvInt("HOME_FEED_WORKERS", 1),
		HomeFeedTopN:       getEnvInt("HOME_FEED_TOP_N", 5),
		HomeFeedCategories: defaultCategories,

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
