package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ClassifierHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.ClassifierModel)
	assert.Equal(t, "none", cfg.APIToken)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ClassifierHost)
		assert.Equal(t, "none", cfg.APIToken)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ClassifierHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithClassifierHost("http://classify:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://classify:9090/v1", cfg.ClassifierHost)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithClassifierModel("gpt-4o-mini"),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.ClassifierModel)
	})

	t.Run("with api token", func(t *testing.T) {
		cfg := NewConfig(WithAPIToken("sk-test"))

		assert.Equal(t, "sk-test", cfg.APIToken)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithEmbeddingModel("custom-embed"),
			WithClassifierModel("custom-classify"),
			WithAPIToken("secret"),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ClassifierHost)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-classify", cfg.ClassifierModel)
		assert.Equal(t, "secret", cfg.APIToken)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"http://localhost:11434", "http://localhost:11434/v1"},
		{"http://localhost:11434/", "http://localhost:11434/v1"},
		{"http://localhost:11434/v1/", "http://localhost:11434/v1"},
		{"  http://embed:8080 ", "http://embed:8080/v1"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, ClassifierHost: tt.host}
			cfg.Normalize()

			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.ClassifierHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config is normalized", func(t *testing.T) {
		cfg := &Config{
			EmbeddingHost:   "http://localhost:11434",
			ClassifierHost:  " http://localhost:11434/ ",
			EmbeddingModel:  "embeddinggemma",
			ClassifierModel: "qwen2.5:3b",
			APIToken:        "none",
		}

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ClassifierHost)
	})

	tests := []struct {
		field string
		clear func(*Config)
	}{
		{"EmbeddingHost", func(c *Config) { c.EmbeddingHost = "" }},
		{"ClassifierHost", func(c *Config) { c.ClassifierHost = "  " }},
		{"EmbeddingModel", func(c *Config) { c.EmbeddingModel = "" }},
		{"ClassifierModel", func(c *Config) { c.ClassifierModel = "" }},
		{"APIToken", func(c *Config) { c.APIToken = "" }},
	}
	for _, tt := range tests {
		t.Run("missing "+tt.field, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.clear(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("reports every missing field", func(t *testing.T) {
		err := (&Config{}).Validate()
		require.Error(t, err)
		for _, tt := range tests {
			assert.Contains(t, err.Error(), tt.field)
		}
	})
}

func TestConfigOptions(t *testing.T) {
	cfg := &Config{}
	for _, opt := range []ConfigOption{
		WithHost("http://shared:8080/v1"),
		WithClassifierHost("http://tagger:9090/v1"),
		WithEmbeddingModel("test-model"),
		WithClassifierModel("test-classifier"),
		WithAPIToken("secret"),
	} {
		opt(cfg)
	}

	assert.Equal(t, "http://shared:8080/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://tagger:9090/v1", cfg.ClassifierHost)
	assert.Equal(t, "test-model", cfg.EmbeddingModel)
	assert.Equal(t, "test-classifier", cfg.ClassifierModel)
	assert.Equal(t, "secret", cfg.APIToken)

	require.NoError(t, DefaultConfig().Validate(), "defaults are valid")
}
