/* config_test.go
 * Contains unit tests for config.go
 */

package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB", "")
	t.Setenv("FETCH_WORKERS", "")
	t.Setenv("FETCH_RATE_PER_SECOND", "")
	t.Setenv("FETCH_TIMEOUT", "")
	t.Setenv("LEAF_BASE_URL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "hdc_league", cfg.DBName)
	assert.Equal(t, 4, cfg.FetchWorkers)
	assert.Equal(t, 5.0, cfg.FetchRate)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "https://leafapp.co", cfg.LeafBaseURL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("FETCH_WORKERS", "8")
	t.Setenv("FETCH_RATE_PER_SECOND", "2.5")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("LEAF_BASE_URL", "http://localhost:9000/")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.FetchWorkers)
	assert.Equal(t, 2.5, cfg.FetchRate)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "http://localhost:9000", cfg.LeafBaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_MissingMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")

	_, err := Load(zerolog.Nop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestLoad_InvalidNumbers(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"workers not a number", "FETCH_WORKERS", "many"},
		{"rate not a number", "FETCH_RATE_PER_SECOND", "fast"},
		{"timeout not a duration", "FETCH_TIMEOUT", "soon"},
		{"zero workers", "FETCH_WORKERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MONGO_URI", "mongodb://localhost")
			t.Setenv(tt.key, tt.val)

			_, err := Load(zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestDiscordToken(t *testing.T) {
	cfg := &Config{DiscordProd: "prod", DiscordBeta: "beta"}
	assert.Equal(t, "prod", cfg.DiscordToken(false))
	assert.Equal(t, "beta", cfg.DiscordToken(true))
}
