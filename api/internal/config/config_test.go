package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"GEMINI_API_KEY": "test-key",
	}})
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, []string{"gemini-1.5-flash", "gemini-1.5-pro"}, cfg.GeminiModels)
	assert.Equal(t, "render", cfg.Deployment)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(20<<20), cfg.MaxBodyBytes)
	assert.Zero(t, cfg.MaxImageSide)
	assert.Equal(t, int64(178956970), cfg.MaxImagePixels)
	assert.Zero(t, cfg.AnalyzeTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"GEMINI_API_KEY":   " key ",
		"GEMINI_MODELS":    "gemini-2.0-flash, ,gemini-2.5-pro ,",
		"PORT":             "8080",
		"ANALYZE_TIMEOUT":  "90s",
		"MAX_IMAGE_SIDE":   "2048",
		"MAX_IMAGE_PIXELS": "4000000",
	}})
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-2.5-pro"}, cfg.GeminiModels)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.AnalyzeTimeout)
	assert.Equal(t, 2048, cfg.MaxImageSide)
	assert.Equal(t, int64(4000000), cfg.MaxImagePixels)
}

func TestParseRequiresCredential(t *testing.T) {
	_, err := parse(env.Options{Environment: map[string]string{}})
	require.Error(t, err)

	_, err = parse(env.Options{Environment: map[string]string{"GEMINI_API_KEY": "   "}})
	require.Error(t, err)
}

func TestParseRejectsEmptyModelChain(t *testing.T) {
	_, err := parse(env.Options{Environment: map[string]string{
		"GEMINI_API_KEY": "k",
		"GEMINI_MODELS":  " , ",
	}})
	assert.ErrorContains(t, err, "GEMINI_MODELS")
}

func TestParseRejectsBadLimits(t *testing.T) {
	_, err := parse(env.Options{Environment: map[string]string{
		"GEMINI_API_KEY": "k",
		"MAX_BODY_BYTES": "0",
	}})
	assert.ErrorContains(t, err, "MAX_BODY_BYTES")

	_, err = parse(env.Options{Environment: map[string]string{
		"GEMINI_API_KEY": "k",
		"MAX_IMAGE_SIDE": "-1",
	}})
	assert.ErrorContains(t, err, "MAX_IMAGE_SIDE")

	_, err = parse(env.Options{Environment: map[string]string{
		"GEMINI_API_KEY":   "k",
		"MAX_IMAGE_PIXELS": "0",
	}})
	assert.ErrorContains(t, err, "MAX_IMAGE_PIXELS")
}
