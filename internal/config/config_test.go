package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "lang_pair: en-ru\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "en-ru", cfg.LangPair)
	assert.Equal(t, DefaultModelName, cfg.ActiveModel)
	assert.Equal(t, translation.DefaultChunkSize, cfg.Chunk.MaxChars)
	assert.True(t, cfg.Chunk.ProtectFences)
	assert.Equal(t, time.Second, cfg.ChunkDelay)
	assert.Equal(t, 2*time.Second, cfg.FileDelay)
	assert.Equal(t, SupportedFormats, cfg.Formats)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.NotEmpty(t, cfg.CacheDir)
	require.NoError(t, cfg.Validate())

	mc, err := cfg.ActiveModelConfig()
	require.NoError(t, err)
	assert.Equal(t, APITypeAnthropic, mc.APIType)
	assert.Equal(t, 16384, mc.MaxOutputTokens)
	assert.Equal(t, translation.DefaultPricing(), mc.Pricing())
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
lang_pair: EN-DE
active_model: gpt-4.1
budget: 2.5
formats: [html, md]
chunk:
  max_chars: 12000
  protect_fences: false
chunk_delay: 250ms
models:
  gpt-4.1:
    model_id: gpt-4.1
    api_type: openai
    key: sk-test
    input_token_price: 2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "en-de", cfg.LangPair)
	assert.InDelta(t, 2.5, cfg.Budget, 1e-9)
	assert.Equal(t, []string{"md", "html"}, cfg.Formats)
	assert.Equal(t, 12000, cfg.ChunkSettings().MaxChars)
	assert.False(t, cfg.ChunkSettings().ProtectFences)
	assert.Equal(t, 250*time.Millisecond, cfg.ChunkDelay)

	mc, err := cfg.ActiveModelConfig()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", mc.Name)
	assert.Equal(t, "gpt-4.1", mc.ModelID)
	assert.Equal(t, APITypeOpenAI, mc.APIType)
	assert.Equal(t, "sk-test", mc.APIKey())
	assert.InDelta(t, 2.0, mc.Pricing().InputPerMillion, 1e-9)
	assert.InDelta(t, 15.0, mc.Pricing().OutputPerMillion, 1e-9)
	assert.Equal(t, 16384, mc.MaxOutputTokens)

	// 默认模型仍然可用
	assert.Contains(t, cfg.ModelConfigs, DefaultModelName)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown pair", func(c *Config) { c.LangPair = "xx-yy" }},
		{"zero chunk", func(c *Config) { c.Chunk.MaxChars = 0 }},
		{"negative budget", func(c *Config) { c.Budget = -1 }},
		{"bad format", func(c *Config) { c.Formats = []string{"epub"} }},
		{"unknown model", func(c *Config) { c.ActiveModel = "nope" }},
		{"unknown api type", func(c *Config) {
			c.ModelConfigs["custom"] = ModelConfig{Name: "custom", ModelID: "m", APIType: "carrier-pigeon"}
			c.ActiveModel = "custom"
		}},
	}

	require.NoError(t, NewDefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), translation.ErrInvalidConfig)
		})
	}
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats("all")
	require.NoError(t, err)
	assert.Equal(t, []string{"md", "html", "pdf", "docx"}, formats)

	formats, err = ParseFormats("docx, markdown,md")
	require.NoError(t, err)
	assert.Equal(t, []string{"md", "docx"}, formats)

	_, err = ParseFormats("")
	assert.ErrorIs(t, err, translation.ErrInvalidConfig)

	_, err = ParseFormats("md,rtf")
	assert.ErrorIs(t, err, translation.ErrInvalidConfig)
}

func TestModelConfig_APIKeyFromEnv(t *testing.T) {
	t.Setenv("MDT_TEST_KEY", "from-env")
	mc := ModelConfig{KeyEnv: "MDT_TEST_KEY"}
	assert.Equal(t, "from-env", mc.APIKey())

	mc.Key = "inline"
	assert.Equal(t, "inline", mc.APIKey())
}

func TestReadOptionalFile(t *testing.T) {
	dir := t.TempDir()
	text, err := ReadOptionalFile(filepath.Join(dir, "TRANSLATE.md"))
	require.NoError(t, err)
	assert.Empty(t, text)

	path := writeFile(t, dir, "HUMANIZER.md", "rules")
	text, err = ReadOptionalFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rules", text)
}
