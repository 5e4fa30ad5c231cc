package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amaumene/cinescout/internal/models"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// TMDB
	TMDBAPIKey       string
	TMDBBaseURL      string
	TMDBImageBaseURL string
	RequestTimeout   time.Duration
	TMDBRateLimit    float64       // Requests per second (0 disables limiting)
	TMDBMaxRetries   int           // Retries on transient transport failures
	CatalogCacheTTL  time.Duration // 0 disables response caching

	// Search pipeline
	SearchDebounce time.Duration // Quiet period before a query is sent (default: 500ms)

	// Trending
	TrendingLimit     int  // Entries in the trending list (default: 5)
	TrendingNormalize bool // Case/whitespace fold terms before counting
	StoreDriver       models.StoreDriver
	RedisURL          string

	// Sessions
	SessionTTL time.Duration

	// Server
	ServerPort string

	// Paths
	DatabaseFile  string // $CONFIG_DIR/cinescout.db
	SQLiteFile    string // $CONFIG_DIR/cinescout.sqlite
	BlocklistFile string // $CONFIG_DIR/blocklist.txt

	// Logging and tracing
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string // Tracing is disabled when empty
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	return load(viper.GetViper())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	configDir, err := resolveConfigDir(v.GetString("CONFIG_DIR"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		// TMDB
		TMDBAPIKey:       v.GetString("TMDB_API_KEY"),
		TMDBBaseURL:      v.GetString("TMDB_BASE_URL"),
		TMDBImageBaseURL: v.GetString("TMDB_IMAGE_BASE_URL"),
		RequestTimeout:   v.GetDuration("REQUEST_TIMEOUT"),
		TMDBRateLimit:    v.GetFloat64("TMDB_RATE_LIMIT"),
		TMDBMaxRetries:   v.GetInt("TMDB_MAX_RETRIES"),
		CatalogCacheTTL:  v.GetDuration("CATALOG_CACHE_TTL"),

		// Search pipeline
		SearchDebounce: v.GetDuration("SEARCH_DEBOUNCE"),

		// Trending
		TrendingLimit:     v.GetInt("TRENDING_LIMIT"),
		TrendingNormalize: v.GetBool("TRENDING_NORMALIZE"),
		StoreDriver:       models.StoreDriver(v.GetString("STORE_DRIVER")),
		RedisURL:          v.GetString("REDIS_URL"),

		// Sessions
		SessionTTL: v.GetDuration("SESSION_TTL"),

		// Server
		ServerPort: v.GetString("SERVER_PORT"),

		// Paths
		DatabaseFile:  filepath.Join(configDir, "cinescout.db"),
		SQLiteFile:    filepath.Join(configDir, "cinescout.sqlite"),
		BlocklistFile: filepath.Join(configDir, "blocklist.txt"),

		// Logging and tracing
		LogLevel:     v.GetString("LOG_LEVEL"),
		LogFormat:    v.GetString("LOG_FORMAT"),
		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	v.SetDefault("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("TMDB_RATE_LIMIT", 40)
	v.SetDefault("TMDB_MAX_RETRIES", 2)
	v.SetDefault("CATALOG_CACHE_TTL", "0s")
	v.SetDefault("SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("TRENDING_LIMIT", 5)
	v.SetDefault("TRENDING_NORMALIZE", false)
	v.SetDefault("STORE_DRIVER", string(models.StoreDriverBolt))
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// resolveConfigDir returns the absolute config directory, creating it if needed
func resolveConfigDir(configDir string) (string, error) {
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "cinescout")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.TMDBAPIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}
	if c.TMDBBaseURL == "" {
		return fmt.Errorf("TMDB_BASE_URL is required")
	}
	if !c.StoreDriver.Valid() {
		return fmt.Errorf("STORE_DRIVER must be one of bolt, sqlite, redis, got %q", c.StoreDriver)
	}
	if c.StoreDriver == models.StoreDriverRedis && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when STORE_DRIVER is redis")
	}
	if c.TrendingLimit <= 0 || c.TrendingLimit > models.MaxTrendingLimit {
		return fmt.Errorf("TRENDING_LIMIT must be between 1 and %d, got %d", models.MaxTrendingLimit, c.TrendingLimit)
	}
	if c.SearchDebounce <= 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must be positive, got %s", c.SearchDebounce)
	}
	if c.TMDBMaxRetries < 0 {
		return fmt.Errorf("TMDB_MAX_RETRIES must not be negative, got %d", c.TMDBMaxRetries)
	}
	return nil
}
