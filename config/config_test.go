package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "GOOGLE_SERVICE_ACCOUNT_BASE64", cfg.Source.CredentialsEnv)
	assert.Equal(t, RedactionDictionary, cfg.Redaction.Strategy)
	assert.Equal(t, VectorizerTFIDF, cfg.Vectorizer.Strategy)
	assert.Equal(t, IndexPersistent, cfg.Index.Type)
	assert.Equal(t, 100, cfg.Index.BatchSize)
	assert.Equal(t, "cleaned_documents.txt", cfg.Sink.Path)
	assert.False(t, cfg.NeedsAI())
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("SCRUBDEX_TEST_ROOT", "folder-123")
	t.Setenv("SCRUBDEX_TEST_TOKEN", "")

	path := filepath.Join(t.TempDir(), "scrubdex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  root: ${SCRUBDEX_TEST_ROOT}
redaction:
  strategy: classifier
  patterns:
    - name: ssn
      pattern: '\d{3}-\d{2}-\d{4}'
      placeholder: '[SSN]'
vectorizer:
  strategy: embedding
  dimensions: 768
  normalize: true
index:
  type: hnsw
  batch_size: 32
ai:
  host: http://localhost:11434
  api_token: ${SCRUBDEX_TEST_TOKEN:-none}
sink:
  append: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "folder-123", cfg.Source.Root)
	assert.Equal(t, RedactionClassifier, cfg.Redaction.Strategy)
	require.Len(t, cfg.Redaction.Patterns, 1)
	assert.Equal(t, `\d{3}-\d{2}-\d{4}`, cfg.Redaction.Patterns[0].Pattern)
	assert.Equal(t, VectorizerEmbedding, cfg.Vectorizer.Strategy)
	assert.Equal(t, 768, cfg.Vectorizer.Dimensions)
	assert.True(t, cfg.Vectorizer.Normalize)
	assert.Equal(t, IndexHNSW, cfg.Index.Type)
	assert.Equal(t, 32, cfg.Index.BatchSize)
	assert.Equal(t, "none", cfg.AI.APIToken)
	assert.True(t, cfg.Sink.Append)
	assert.Equal(t, "cleaned_documents.txt", cfg.Sink.Path)
	assert.True(t, cfg.NeedsAI())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad redaction", "redaction: {strategy: regex}"},
		{"bad vectorizer", "vectorizer: {strategy: random}"},
		{"bad index", "index: {type: faiss}"},
		{"incomplete pattern", "redaction: {patterns: [{name: x}]}"},
		{"bad log level", "logging: {level: loud}"},
		{"tfidf appended to persistent index", "sink: {append: true}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParse_AppendWithoutRunScopedIndex(t *testing.T) {
	for _, yaml := range []string{
		"sink: {append: true}\nindex: {type: flat}",
		"sink: {append: true}\nvectorizer: {strategy: embedding, dimensions: 8}",
	} {
		_, err := Parse([]byte(yaml))
		assert.NoError(t, err, yaml)
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("source: [unclosed"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SCRUBDEX_SET", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"${SCRUBDEX_SET}", "value"},
		{"${SCRUBDEX_UNSET_VAR}", ""},
		{"${SCRUBDEX_UNSET_VAR:-fallback}", "fallback"},
		{"${SCRUBDEX_SET:-fallback}", "value"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, string(expandEnvVars([]byte(tt.in))))
		})
	}
}
