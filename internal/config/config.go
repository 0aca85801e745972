package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Bot Settings
	BotToken      string
	BotName       string
	Version       string
	CommandPrefix string

	// Database
	DatabaseURL string
	UseDatabase bool

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	UseRedis      bool

	// Lyrics
	LyricsEndpoint string

	// Logging
	LogLevel  string
	LogFormat string

	// Playback
	DefaultVolume int
	IdleTimeout   time.Duration

	// Performance
	WorkerCount          int
	MaxQueueSize         int
	CacheSize            int
	CacheDurationMinutes int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	// Validate required variables
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	if len(botToken) < 50 {
		return nil, fmt.Errorf("invalid BOT_TOKEN format (too short)")
	}

	// Database configuration
	useDatabase := getEnvBool("USE_DATABASE", false)
	var databaseURL string
	if useDatabase {
		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("POSTGRES_USER"),
			os.Getenv("POSTGRES_PASSWORD"),
			getEnvOrDefault("POSTGRES_HOST", "localhost"),
			getEnvOrDefault("POSTGRES_PORT", "5432"),
			os.Getenv("POSTGRES_DB"),
		)
	}

	cfg := &Config{
		// Bot Settings
		BotToken:      botToken,
		BotName:       getEnvOrDefault("BOT_NAME", "GrooveBot"),
		Version:       getEnvOrDefault("VERSION", "1.0.0"),
		CommandPrefix: getEnvOrDefault("COMMAND_PREFIX", "!"),

		// Database
		DatabaseURL: databaseURL,
		UseDatabase: useDatabase,

		// Redis
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		UseRedis:      getEnvBool("USE_REDIS", false),

		// Lyrics
		LyricsEndpoint: getEnvOrDefault("LYRICS_ENDPOINT", "https://api.lyrics.ovh/v1"),

		// Logging
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),

		// Playback
		DefaultVolume: getEnvInt("DEFAULT_VOLUME", 100),
		IdleTimeout:   time.Duration(getEnvInt("IDLE_TIMEOUT_SECONDS", 300)) * time.Second,

		// Performance
		WorkerCount:          getEnvInt("WORKER_COUNT", 3),
		MaxQueueSize:         getEnvInt("MAX_QUEUE_SIZE", 100),
		CacheSize:            getEnvInt("CACHE_SIZE", 500),
		CacheDurationMinutes: getEnvInt("CACHE_DURATION_MINUTES", 360),
	}

	return cfg, nil
}

// RedisAddr returns the host:port address for the Redis client
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// GetSafeToken returns a masked version of the token for logging
func (c *Config) GetSafeToken() string {
	if len(c.BotToken) < 15 {
		return "***"
	}
	return c.BotToken[:10] + "..." + c.BotToken[len(c.BotToken)-4:]
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "NO":
			return false
		}
	}
	return defaultValue
}
