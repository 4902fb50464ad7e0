/* config.go
 * Contains the configuration used to run the league service. Values are read from the environment, optionally
 * populated from a .env file
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	MongoURI     string
	DBName       string
	DiscordProd  string
	DiscordBeta  string
	AdminKey     string
	ListenAddr   string
	LeafBaseURL  string
	CORSOrigins  []string
	LogLevel     string
	FetchWorkers int
	FetchRate    float64
	FetchTimeout time.Duration
}

// Load reads the service configuration.
// Preconditions: Receives a logger used to report which values were loaded
// Postconditions: Returns a populated Config, or an error if a required value is missing or malformed
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", ""),
		DBName:      getEnv("MONGO_DB", "hdc_league"),
		DiscordProd: getEnv("DISCORD_PROD_TOKEN", ""),
		DiscordBeta: getEnv("DISCORD_BETA_TOKEN", ""),
		AdminKey:    getEnv("ADMIN_KEY", ""),
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		LeafBaseURL: strings.TrimRight(getEnv("LEAF_BASE_URL", "https://leafapp.co"), "/"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.FetchWorkers, err = getEnvInt("FETCH_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.FetchRate, err = getEnvFloat("FETCH_RATE_PER_SECOND", 5); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getEnvDuration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_name", cfg.DBName).
		Str("listen_addr", cfg.ListenAddr).
		Str("leaf_base_url", cfg.LeafBaseURL).
		Int("fetch_workers", cfg.FetchWorkers).
		Float64("fetch_rate", cfg.FetchRate).
		Dur("fetch_timeout", cfg.FetchTimeout).
		Bool("admin_enabled", cfg.AdminKey != "").
		Msg("configuration loaded")

	return cfg, nil
}

// Validate checks the values that cannot fall back to a default
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.FetchWorkers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be at least 1, got %d", c.FetchWorkers)
	}
	if c.FetchRate <= 0 {
		return fmt.Errorf("FETCH_RATE_PER_SECOND must be positive, got %v", c.FetchRate)
	}
	return nil
}

// DiscordToken returns the bot token for the production or beta bot
func (c *Config) DiscordToken(beta bool) string {
	if beta {
		return c.DiscordBeta
	}
	return c.DiscordProd
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
