// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads scrubdex run configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Redaction strategies.
const (
	RedactionDictionary = "dictionary"
	RedactionClassifier = "classifier"
)

// Vectorizer strategies.
const (
	VectorizerTFIDF     = "tfidf"
	VectorizerEmbedding = "embedding"
)

// Index kinds.
const (
	IndexFlat       = "flat"
	IndexHNSW       = "hnsw"
	IndexPersistent = "persistent"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings of one ingestion deployment.
type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Extract    ExtractConfig    `yaml:"extract"`
	Redaction  RedactionConfig  `yaml:"redaction"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Index      IndexConfig      `yaml:"index"`
	AI         AIConfig         `yaml:"ai"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Sink       SinkConfig       `yaml:"sink"`
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SourceConfig selects the remote store and root container.
type SourceConfig struct {
	Root           string `yaml:"root"`
	CredentialsEnv string `yaml:"credentials_env"`
	PageSize       int    `yaml:"page_size"`
	ChunkSize      int    `yaml:"chunk_size"`
}

// ExtractConfig bounds downloads.
type ExtractConfig struct {
	MaxSizeMB   int `yaml:"max_size_mb"`
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
}

// PatternConfig is an extra regular-expression redaction rule.
type PatternConfig struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Placeholder string `yaml:"placeholder"`
}

// RedactionConfig selects the person-name strategy and extra rules.
type RedactionConfig struct {
	Strategy string          `yaml:"strategy"` // dictionary, classifier
	Names    []string        `yaml:"names"`
	Patterns []PatternConfig `yaml:"patterns"`
}

// VectorizerConfig selects the vectorization strategy.
type VectorizerConfig struct {
	Strategy   string `yaml:"strategy"` // tfidf, embedding
	Dimensions int    `yaml:"dimensions"`
	Normalize  bool   `yaml:"normalize"`
	CacheSize  int    `yaml:"cache_size"`
	Analyzer   string `yaml:"analyzer"`
}

// IndexConfig selects the search index and its batch threshold.
type IndexConfig struct {
	Type         string `yaml:"type"` // flat, hnsw, persistent
	BatchSize    int    `yaml:"batch_size"`
	HNSWM        int    `yaml:"hnsw_m"`
	HNSWEfSearch int    `yaml:"hnsw_ef_search"`
}

// AIConfig points at an OpenAI-compatible service.
type AIConfig struct {
	Host            string `yaml:"host"`
	EmbeddingModel  string `yaml:"embedding_model"`
	ClassifierModel string `yaml:"classifier_model"`
	APIToken        string `yaml:"api_token"`
}

// WorkspaceConfig locates the manifest and persistent index.
type WorkspaceConfig struct {
	Dir string `yaml:"dir"`
}

// SinkConfig locates the sanitized text output.
type SinkConfig struct {
	Path   string `yaml:"path"`
	Append bool   `yaml:"append"`
}

// HTTPConfig configures the health server.
type HTTPConfig struct {
	Addr        string `yaml:"addr"`
	ShutdownSec int    `yaml:"shutdown_timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a Config with every default applied.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// Load reads path, expands ${VAR} and ${VAR:-default} references, applies
// defaults and validates the result. An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Source.CredentialsEnv == "" {
		c.Source.CredentialsEnv = "GOOGLE_SERVICE_ACCOUNT_BASE64"
	}
	if c.Source.PageSize <= 0 {
		c.Source.PageSize = 100
	}
	if c.Source.ChunkSize <= 0 {
		c.Source.ChunkSize = 1 << 20
	}
	if c.Extract.MaxSizeMB <= 0 {
		c.Extract.MaxSizeMB = 256
	}
	if c.Extract.MaxAttempts <= 0 {
		c.Extract.MaxAttempts = 4
	}
	if c.Extract.BaseDelayMs <= 0 {
		c.Extract.BaseDelayMs = 250
	}
	if c.Extract.MaxDelayMs <= 0 {
		c.Extract.MaxDelayMs = 5000
	}
	if c.Redaction.Strategy == "" {
		c.Redaction.Strategy = RedactionDictionary
	}
	if c.Vectorizer.Strategy == "" {
		c.Vectorizer.Strategy = VectorizerTFIDF
	}
	if c.Vectorizer.Strategy == VectorizerEmbedding && c.Vectorizer.Dimensions <= 0 {
		c.Vectorizer.Dimensions = 384
	}
	if c.Index.Type == "" {
		c.Index.Type = IndexPersistent
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 100
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEfSearch <= 0 {
		c.Index.HNSWEfSearch = 20
	}
	if c.Workspace.Dir == "" {
		c.Workspace.Dir = "scrubdex.db"
	}
	if c.Sink.Path == "" {
		c.Sink.Path = "cleaned_documents.txt"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness. The root container is
// not required here; commands that ingest check it.
func (c *Config) Validate() error {
	switch c.Redaction.Strategy {
	case RedactionDictionary, RedactionClassifier:
	default:
		return fmt.Errorf("%w: redaction.strategy must be %q or %q, got %q",
			ErrInvalidConfig, RedactionDictionary, RedactionClassifier, c.Redaction.Strategy)
	}
	for i, p := range c.Redaction.Patterns {
		if p.Name == "" || p.Pattern == "" || p.Placeholder == "" {
			return fmt.Errorf("%w: redaction.patterns[%d] needs name, pattern and placeholder", ErrInvalidConfig, i)
		}
	}

	switch c.Vectorizer.Strategy {
	case VectorizerTFIDF:
	case VectorizerEmbedding:
		if c.Vectorizer.Dimensions <= 0 {
			return fmt.Errorf("%w: vectorizer.dimensions must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: vectorizer.strategy must be %q or %q, got %q",
			ErrInvalidConfig, VectorizerTFIDF, VectorizerEmbedding, c.Vectorizer.Strategy)
	}

	switch c.Index.Type {
	case IndexFlat, IndexHNSW, IndexPersistent:
	default:
		return fmt.Errorf("%w: index.type must be flat, hnsw or persistent, got %q", ErrInvalidConfig, c.Index.Type)
	}
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("%w: index.batch_size must be positive", ErrInvalidConfig)
	}
	// TF-IDF columns are fitted per run, so earlier vectors cannot be kept.
	if c.Vectorizer.Strategy == VectorizerTFIDF && c.Index.Type == IndexPersistent && c.Sink.Append {
		return fmt.Errorf("%w: sink.append cannot be combined with the tfidf vectorizer and a persistent index", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// NeedsAI reports whether the configuration calls an AI service.
func (c *Config) NeedsAI() bool {
	return c.Redaction.Strategy == RedactionClassifier || c.Vectorizer.Strategy == VectorizerEmbedding
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
