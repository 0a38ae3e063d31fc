// Package config loads the notepad configuration from YAML, .env files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the notepad service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Recommender   RecommenderConfig   `yaml:"recommender"`
	Keywords      KeywordsConfig      `yaml:"keywords"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Index         IndexConfig         `yaml:"index"`
	Provider      ProviderConfig      `yaml:"provider"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// RecommenderConfig selects the recommendation strategy.
type RecommenderConfig struct {
	Strategy string `yaml:"strategy"` // keyword or retrieval
}

// KeywordsConfig holds keyword matcher settings.
type KeywordsConfig struct {
	// File is an optional YAML dictionary replacing the built-in one
	File string `yaml:"file"`
}

// RetrievalConfig holds single-document retriever settings.
type RetrievalConfig struct {
	DocumentPath        string  `yaml:"document_path"`
	PassageSize         int     `yaml:"passage_size"`
	PassageOverlap      int     `yaml:"passage_overlap"`
	MaxPassages         int     `yaml:"max_passages"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// IndexConfig selects the similarity index backend.
type IndexConfig struct {
	Backend string       `yaml:"backend"` // memory or chroma
	Chroma  ChromaConfig `yaml:"chroma"`
}

// ChromaConfig holds ChromaDB settings.
type ChromaConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	CollectionName string        `yaml:"collection"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ProviderConfig holds generative provider settings.
type ProviderConfig struct {
	Name string `yaml:"name"` // gemini or ollama
	// Model and EmbeddingModel fall back to the provider's defaults when empty
	Model          string        `yaml:"model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	APIKey         string        `yaml:"-"`
	OllamaURL      string        `yaml:"ollama_url"`
	Timeout        time.Duration `yaml:"timeout"`
	Temperature    float64       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies .env and environment
// overrides. An empty path uses defaults.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with development defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8501,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     90 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   60 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Recommender: RecommenderConfig{
			Strategy: "keyword",
		},
		Retrieval: RetrievalConfig{
			DocumentPath:        "dispute_instructions.txt",
			PassageSize:         800,
			PassageOverlap:      100,
			MaxPassages:         3,
			SimilarityThreshold: 0,
		},
		Index: IndexConfig{
			Backend: "memory",
			Chroma: ChromaConfig{
				Host:           "localhost",
				Port:           8000,
				CollectionName: "dispute_instructions",
				Timeout:        30 * time.Second,
			},
		},
		Provider: ProviderConfig{
			Name:        "gemini",
			OllamaURL:   "http://localhost:11434",
			Timeout:     60 * time.Second,
			Temperature: 0.2,
			MaxTokens:   1024,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "console",
			ServiceName: "dispute-notepad",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Recommender.Strategy != "keyword" && c.Recommender.Strategy != "retrieval" {
		return fmt.Errorf("invalid recommender strategy: %s", c.Recommender.Strategy)
	}

	if c.Index.Backend != "memory" && c.Index.Backend != "chroma" {
		return fmt.Errorf("invalid index backend: %s", c.Index.Backend)
	}

	if c.Provider.Name != "gemini" && c.Provider.Name != "ollama" {
		return fmt.Errorf("invalid provider: %s", c.Provider.Name)
	}

	if c.Retrieval.PassageSize < 1 {
		return fmt.Errorf("passage_size must be positive")
	}

	if c.Retrieval.PassageOverlap < 0 || c.Retrieval.PassageOverlap >= c.Retrieval.PassageSize {
		return fmt.Errorf("passage_overlap must be between 0 and passage_size")
	}

	if c.Retrieval.MaxPassages < 1 || c.Retrieval.MaxPassages > 20 {
		return fmt.Errorf("max_passages must be between 1 and 20")
	}

	return nil
}

// HasCredential reports whether the configured provider has what it needs to
// be constructed. Ollama runs locally and needs no credential.
func (c *Config) HasCredential() bool {
	if c.Provider.Name == "ollama" {
		return c.Provider.OllamaURL != ""
	}
	return c.Provider.APIKey != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("RECOMMENDER_STRATEGY"); v != "" {
		cfg.Recommender.Strategy = v
	}

	if v := os.Getenv("KEYWORDS_FILE"); v != "" {
		cfg.Keywords.File = v
	}

	if v := os.Getenv("INSTRUCTIONS_PATH"); v != "" {
		cfg.Retrieval.DocumentPath = v
	}

	if v := os.Getenv("INDEX_BACKEND"); v != "" {
		cfg.Index.Backend = v
	}

	if v := os.Getenv("CHROMA_HOST"); v != "" {
		cfg.Index.Chroma.Host = v
	}

	if v := os.Getenv("CHROMA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Index.Chroma.Port = port
		}
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Provider.Model = v
	}

	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.Provider.OllamaURL = v
	}

	// GEMINI_API_KEY wins over GOOGLE_API_KEY
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
