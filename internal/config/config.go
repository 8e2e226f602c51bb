package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Vector    VectorConfig    `yaml:"vector,omitempty"`
	Chunk     ChunkConfig     `yaml:"chunk,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Ingest    IngestConfig    `yaml:"ingest,omitempty"`
	GitHub    GitHubConfig    `yaml:"github,omitempty"`
	Relevance RelevanceConfig `yaml:"relevance,omitempty"`
	LLM       LLMConfig       `yaml:"llm,omitempty"`
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "openai" | "volcengine"

	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`

	Dimensions int `yaml:"dimensions"` // 0 lets the model decide
	BatchSize  int `yaml:"batch_size"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Path to SQLite database file
	// If empty, uses ~/.forgerag/data/forgerag.db
	Path string `yaml:"path,omitempty"`
}

// VectorConfig selects where embedded documents live
type VectorConfig struct {
	Backend string `yaml:"backend,omitempty"` // "sqlite"
}

// ChunkConfig controls text chunking before embedding
type ChunkConfig struct {
	MaxSize int `yaml:"max_size,omitempty"`
}

// DefaultThreshold is used when search.threshold is absent.
const DefaultThreshold = 0.7

// SearchConfig holds similarity search configuration
type SearchConfig struct {
	Limit     int     `yaml:"limit,omitempty"`     // Default number of results
	Threshold float64 `yaml:"threshold,omitempty"` // Minimum cosine similarity (exclusive)
	RAGLimit  int     `yaml:"rag_limit,omitempty"` // Default number of RAG matches
}

// IngestConfig holds bulk embedding configuration
type IngestConfig struct {
	Workers     int      `yaml:"workers,omitempty"`
	Include     []string `yaml:"include,omitempty"` // doublestar patterns over repository file paths
	EmbedReadme *bool    `yaml:"embed_readme,omitempty"`
}

// GitHubConfig holds repository search configuration
type GitHubConfig struct {
	Token             string  `yaml:"token,omitempty"`
	APIURL            string  `yaml:"api_url,omitempty"`
	PerPage           int     `yaml:"per_page,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	MaxResults        int     `yaml:"max_results,omitempty"`
	CatalogDir        string  `yaml:"catalog_dir,omitempty"`
}

// RelevanceConfig holds repository scoring configuration
type RelevanceConfig struct {
	ProjectTypesFile string `yaml:"project_types_file,omitempty"`
}

// LLMConfig holds chat model configuration for backlog generation
type LLMConfig struct {
	Provider string `yaml:"provider,omitempty"` // "openai" | "volcengine"
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

// ReadmeEnabled reports whether README text is chunked during ingest.
func (c IngestConfig) ReadmeEnabled() bool {
	return c.EmbedReadme == nil || *c.EmbedReadme
}

// BaseDir returns ~/.forgerag
func BaseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".forgerag"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config", "forgerag.yaml"), nil
}

// Load loads configuration from the default config file
// Default location: ~/.forgerag/config/forgerag.yaml
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromFile(configPath)
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			defaultPath, _ := DefaultPath()
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	// Preset so that an explicit threshold of 0 survives decoding.
	cfg := Config{Search: SearchConfig{Threshold: DefaultThreshold}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with -config flag\n"+
		"  3. Run 'forgerag embed' once to write a template",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	var notFound *ConfigNotFoundError
	return errors.As(err, &notFound)
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() error {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Provider == "volcengine" && c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 10
	}

	base, err := BaseDir()
	if err != nil {
		return err
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(base, "data", "forgerag.db")
	}
	c.Database.Path = expandPath(c.Database.Path)

	if c.Vector.Backend == "" {
		c.Vector.Backend = "sqlite"
	}

	if c.Chunk.MaxSize == 0 {
		c.Chunk.MaxSize = 1000
	}

	if c.Search.Limit == 0 {
		c.Search.Limit = 10
	}
	if c.Search.RAGLimit == 0 {
		c.Search.RAGLimit = 5
	}

	if c.Ingest.Workers == 0 {
		c.Ingest.Workers = 1
	}
	if len(c.Ingest.Include) == 0 {
		c.Ingest.Include = []string{"**/*.md"}
	}

	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = "https://api.github.com"
	}
	if c.GitHub.PerPage == 0 {
		c.GitHub.PerPage = 5
	}
	if c.GitHub.RequestsPerSecond == 0 {
		c.GitHub.RequestsPerSecond = 0.5
	}
	if c.GitHub.MaxResults == 0 {
		c.GitHub.MaxResults = 20
	}
	if c.GitHub.CatalogDir == "" {
		c.GitHub.CatalogDir = filepath.Join(base, "data", "catalog.bleve")
	}
	c.GitHub.CatalogDir = expandPath(c.GitHub.CatalogDir)

	if c.Relevance.ProjectTypesFile != "" {
		c.Relevance.ProjectTypesFile = expandPath(c.Relevance.ProjectTypesFile)
	}

	// The chat model shares credentials with the embedding provider unless set.
	if c.LLM.Provider == "" {
		c.LLM.Provider = c.Embedding.Provider
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = c.Embedding.APIKey
	}
	if c.LLM.BaseURL == "" && c.LLM.Provider == c.Embedding.Provider {
		c.LLM.BaseURL = c.Embedding.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai", "volcengine":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("dimensions must not be negative, got: %d", c.Embedding.Dimensions)
	}

	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > 100 {
		return fmt.Errorf("batch_size must be between 1 and 100, got: %d", c.Embedding.BatchSize)
	}

	switch c.Vector.Backend {
	case "sqlite":
	case "memory":
		return fmt.Errorf("vector backend memory does not persist between commands; use sqlite")
	default:
		return fmt.Errorf("unsupported vector backend: %s", c.Vector.Backend)
	}

	if c.Chunk.MaxSize < 0 {
		return fmt.Errorf("chunk.max_size must be positive, got: %d", c.Chunk.MaxSize)
	}

	if c.Search.Threshold < -1 || c.Search.Threshold >= 1 {
		return fmt.Errorf("search.threshold must be in [-1, 1), got: %v", c.Search.Threshold)
	}

	if c.Ingest.Workers < 1 || c.Ingest.Workers > 32 {
		return fmt.Errorf("ingest.workers must be between 1 and 32, got: %d", c.Ingest.Workers)
	}

	if c.GitHub.PerPage < 1 || c.GitHub.PerPage > 100 {
		return fmt.Errorf("github.per_page must be between 1 and 100, got: %d", c.GitHub.PerPage)
	}

	return nil
}

const defaultConfigTemplate = `# forgerag configuration
#
# Default location: $HOME/.forgerag/config/forgerag.yaml

embedding:
  # Provider: "openai" or "volcengine" (OpenAI-compatible Ark endpoint)
  provider: openai
  api_key: your-openai-api-key
  model: text-embedding-3-small
  batch_size: 10

vector:
  backend: sqlite

search:
  limit: 10
  threshold: 0.7
  rag_limit: 5

ingest:
  workers: 1
  include:
    - "**/*.md"

github:
  # Falls back to $GITHUB_TOKEN
  token: ""
  per_page: 5
  max_results: 20
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0600); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
