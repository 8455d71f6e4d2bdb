package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		WeatherAPIKey: "wkey",
		OpenAIAPIKey:  "okey",
		ChunkSize:     1000,
		ChunkOverlap:  200,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "document_embeddings", cfg.QdrantCollection)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.WeatherAPIKey = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.OpenAIAPIKey = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.ChunkOverlap = cfg.ChunkSize
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.ChunkSize = 0
	assert.Error(t, cfg.Validate())
}
