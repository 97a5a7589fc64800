package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ProjectType represents the type of project detected.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeRust    ProjectType = "rust"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeUnknown ProjectType = "unknown"
)

// Config represents the complete Quarry configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Paths     PathsConfig     `yaml:"paths" json:"paths"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Chunking  ChunkingConfig  `yaml:"chunking" json:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Log       LogConfig       `yaml:"log" json:"log"`
}

// PathsConfig configures which paths to include and exclude.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// SearchConfig configures search behavior and hybrid fusion parameters.
// Weights and the RRF constant are configurable via:
//  1. User config (~/.config/quarry/config.yaml) - personal defaults
//  2. Project config (.quarry.yaml) - per-repo tuning
//  3. Env vars (QUARRY_LEXICAL_WEIGHT, QUARRY_SEMANTIC_WEIGHT, QUARRY_RRF_CONSTANT) - highest priority
type SearchConfig struct {
	// LexicalWeight is the weight for BM25 keyword matching (0.0-1.0).
	// Must sum to 1.0 with SemanticWeight.
	LexicalWeight float64 `yaml:"lexical_weight" json:"lexical_weight"`

	// SemanticWeight is the weight for embedding similarity (0.0-1.0).
	// Must sum to 1.0 with LexicalWeight.
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`

	// RRFConstant is the RRF fusion smoothing parameter (k).
	// Higher values reduce the impact of rank differences.
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	// TopK is the default number of results for semantic and hybrid search.
	TopK int `yaml:"topk" json:"topk"`

	// Threshold is the minimum cosine similarity for semantic results (0.0-1.0).
	Threshold float64 `yaml:"threshold" json:"threshold"`

	// ContextLines is the default number of context lines around regex matches.
	ContextLines int `yaml:"context_lines" json:"context_lines"`
}

// ChunkingConfig configures how files are split into chunks.
type ChunkingConfig struct {
	// MaxTokens is the token budget per chunk.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
	// OverlapTokens is the token overlap between adjacent split chunks.
	OverlapTokens int `yaml:"overlap_tokens" json:"overlap_tokens"`
	// FallbackWindow is the line-window size for files without a parser.
	FallbackWindow int `yaml:"fallback_window" json:"fallback_window"`
	// FallbackOverlap is the line overlap between fallback windows.
	FallbackOverlap int `yaml:"fallback_overlap" json:"fallback_overlap"`
}

// EmbeddingConfig configures the embedding model. The model name alone
// selects the backend: registry models run through Ollama, the "static"
// and "none" pseudo-models run in process.
type EmbeddingConfig struct {
	// Model is the embedding model name.
	Model     string `yaml:"model" json:"model"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
	// OllamaHost is the Ollama API endpoint (default: http://localhost:11434).
	OllamaHost           string        `yaml:"ollama_host" json:"ollama_host"`
	ModelDownloadTimeout time.Duration `yaml:"model_download_timeout" json:"model_download_timeout"`
}

// IndexConfig configures indexing behavior.
type IndexConfig struct {
	// Workers is the number of concurrent chunking workers (0 = auto).
	Workers int `yaml:"workers" json:"workers"`
	// MaxFiles caps the number of files considered per run.
	MaxFiles int `yaml:"max_files" json:"max_files"`
	// MaxFileSizeMB caps the size of individual indexable files.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	// WatchDebounce is the quiet period before reindexing in watch mode.
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// TelemetryConfig configures local operation metrics.
type TelemetryConfig struct {
	// Enabled records index and search timings to a local database.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Path overrides the database location (default: .quarry/telemetry.db).
	Path string `yaml:"path" json:"path"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	// File overrides the log path (default: ~/.quarry/logs/quarry.log).
	File string `yaml:"file" json:"file"`
}

// defaultExcludePatterns are always excluded.
var defaultExcludePatterns = []string{
	"**/.quarry/**",
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/target/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// DefaultWorkers returns the default worker pool size: NumCPU capped at 8.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	return n
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Search: SearchConfig{
			LexicalWeight:  0.35,
			SemanticWeight: 0.65,
			RRFConstant:    60,
			TopK:           10,
			Threshold:      0.6,
			ContextLines:   0,
		},
		Chunking: ChunkingConfig{
			MaxTokens:       512,
			OverlapTokens:   64,
			FallbackWindow:  128,
			FallbackOverlap: 16,
		},
		Embedding: EmbeddingConfig{
			Model:                "nomic-embed-text-v1.5",
			BatchSize:            32,
			OllamaHost:           "", // Empty uses default http://localhost:11434
			ModelDownloadTimeout: 10 * time.Minute,
		},
		Index: IndexConfig{
			Workers:       DefaultWorkers(),
			MaxFiles:      100000,
			MaxFileSizeMB: 10,
			WatchDebounce: "500ms",
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			Path:    "",
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/quarry/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/quarry/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quarry", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback - should rarely happen
		return filepath.Join(os.TempDir(), ".config", "quarry", "config.yaml")
	}
	return filepath.Join(home, ".config", "quarry", "config.yaml")
}

// ProjectConfigPath returns the path of the project config file in dir,
// or empty string if none exists.
func ProjectConfigPath(dir string) string {
	yamlPath := filepath.Join(dir, ".quarry.yaml")
	if fileExists(yamlPath) {
		return yamlPath
	}
	ymlPath := filepath.Join(dir, ".quarry.yml")
	if fileExists(ymlPath) {
		return ymlPath
	}
	return ""
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration for the project rooted at dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/quarry/config.yaml)
//  3. Project config (.quarry.yaml in project root)
//  4. Environment variables (QUARRY_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	// Step 1: Load user/global config (if exists)
	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	// Step 2: Load project config (overrides user config)
	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	// Step 3: Apply environment variable overrides (highest precedence)
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	// Step 4: Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .quarry.yaml or .quarry.yml.
func (c *Config) loadFromFile(dir string) error {
	// Try .yaml first (takes precedence)
	yamlPath := filepath.Join(dir, ".quarry.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	// Try .yml as fallback
	ymlPath := filepath.Join(dir, ".quarry.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Use a temporary struct for parsing to detect type errors
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Merge parsed values with defaults (only non-zero values)
	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Paths
	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		// Merge with defaults rather than replace
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	// Search weights and fusion parameters
	// Note: 0 is not a practical value for weights, so we only merge non-zero values
	if other.Search.LexicalWeight != 0 {
		c.Search.LexicalWeight = other.Search.LexicalWeight
	}
	if other.Search.SemanticWeight != 0 {
		c.Search.SemanticWeight = other.Search.SemanticWeight
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.Threshold != 0 {
		c.Search.Threshold = other.Search.Threshold
	}
	if other.Search.ContextLines != 0 {
		c.Search.ContextLines = other.Search.ContextLines
	}

	// Chunking
	if other.Chunking.MaxTokens != 0 {
		c.Chunking.MaxTokens = other.Chunking.MaxTokens
	}
	if other.Chunking.OverlapTokens != 0 {
		c.Chunking.OverlapTokens = other.Chunking.OverlapTokens
	}
	if other.Chunking.FallbackWindow != 0 {
		c.Chunking.FallbackWindow = other.Chunking.FallbackWindow
	}
	if other.Chunking.FallbackOverlap != 0 {
		c.Chunking.FallbackOverlap = other.Chunking.FallbackOverlap
	}

	// Embedding
	if other.Embedding.Model != "" {
		c.Embedding.Model = other.Embedding.Model
	}
	if other.Embedding.BatchSize != 0 {
		c.Embedding.BatchSize = other.Embedding.BatchSize
	}
	if other.Embedding.OllamaHost != "" {
		c.Embedding.OllamaHost = other.Embedding.OllamaHost
	}
	if other.Embedding.ModelDownloadTimeout != 0 {
		c.Embedding.ModelDownloadTimeout = other.Embedding.ModelDownloadTimeout
	}

	// Index
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.MaxFiles != 0 {
		c.Index.MaxFiles = other.Index.MaxFiles
	}
	if other.Index.MaxFileSizeMB != 0 {
		c.Index.MaxFileSizeMB = other.Index.MaxFileSizeMB
	}
	if other.Index.WatchDebounce != "" {
		c.Index.WatchDebounce = other.Index.WatchDebounce
	}

	// Telemetry
	if other.Telemetry.Path != "" {
		c.Telemetry.Path = other.Telemetry.Path
	}
	// Enabled can be explicitly set to false, so only merge when path is set.
	// QUARRY_TELEMETRY always wins either way.
	if other.Telemetry.Path != "" {
		c.Telemetry.Enabled = other.Telemetry.Enabled
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}
}

// envOverrides mirrors the QUARRY_* environment variables. Pointer fields
// distinguish "unset" from explicit zero values, so QUARRY_THRESHOLD=0 works.
type envOverrides struct {
	LexicalWeight  *float64 `envconfig:"LEXICAL_WEIGHT"`
	SemanticWeight *float64 `envconfig:"SEMANTIC_WEIGHT"`
	RRFConstant    *int     `envconfig:"RRF_CONSTANT"`
	TopK           *int     `envconfig:"TOPK"`
	Threshold      *float64 `envconfig:"THRESHOLD"`
	Model          *string  `envconfig:"MODEL"`
	OllamaHost     *string  `envconfig:"OLLAMA_HOST"`
	Workers        *int     `envconfig:"INDEX_WORKERS"`
	Telemetry      *bool    `envconfig:"TELEMETRY"`
	LogLevel       *string  `envconfig:"LOG_LEVEL"`
	LogFile        *string  `envconfig:"LOG_FILE"`
}

// applyEnvOverrides applies QUARRY_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	var env envOverrides
	if err := envconfig.Process("quarry", &env); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if env.LexicalWeight != nil && *env.LexicalWeight >= 0 && *env.LexicalWeight <= 1 {
		c.Search.LexicalWeight = *env.LexicalWeight
	}
	if env.SemanticWeight != nil && *env.SemanticWeight >= 0 && *env.SemanticWeight <= 1 {
		c.Search.SemanticWeight = *env.SemanticWeight
	}
	if env.RRFConstant != nil && *env.RRFConstant > 0 {
		c.Search.RRFConstant = *env.RRFConstant
	}
	if env.TopK != nil && *env.TopK > 0 {
		c.Search.TopK = *env.TopK
	}
	if env.Threshold != nil && *env.Threshold >= 0 && *env.Threshold <= 1 {
		c.Search.Threshold = *env.Threshold
	}
	if env.Model != nil {
		c.Embedding.Model = *env.Model
	}
	if env.OllamaHost != nil {
		c.Embedding.OllamaHost = *env.OllamaHost
	}
	if env.Workers != nil && *env.Workers > 0 {
		c.Index.Workers = *env.Workers
	}
	if env.Telemetry != nil {
		c.Telemetry.Enabled = *env.Telemetry
	}
	if env.LogLevel != nil {
		c.Log.Level = *env.LogLevel
	}
	if env.LogFile != nil {
		c.Log.File = *env.LogFile
	}

	return nil
}

// DetectProjectType detects the project type based on marker files.
// Priority: go.mod > Cargo.toml > package.json > pyproject.toml/requirements.txt
func DetectProjectType(dir string) ProjectType {
	if fileExists(filepath.Join(dir, "go.mod")) {
		return ProjectTypeGo
	}

	if fileExists(filepath.Join(dir, "Cargo.toml")) {
		return ProjectTypeRust
	}

	if fileExists(filepath.Join(dir, "package.json")) {
		return ProjectTypeNode
	}

	if fileExists(filepath.Join(dir, "pyproject.toml")) ||
		fileExists(filepath.Join(dir, "requirements.txt")) {
		return ProjectTypePython
	}

	return ProjectTypeUnknown
}

// FindProjectRoot finds the project root directory.
// It looks for a .git directory or .quarry.yaml/.yml file by walking up
// the directory tree.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		if fileExists(filepath.Join(currentDir, ".quarry.yaml")) ||
			fileExists(filepath.Join(currentDir, ".quarry.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, return original directory
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// String returns a string representation of ProjectType.
func (p ProjectType) String() string {
	return string(p)
}

// IsKnown returns true if the project type is known (not unknown).
func (p ProjectType) IsKnown() bool {
	return p != ProjectTypeUnknown
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version %d (expected 1)", c.Version)
	}

	// Validate search weights
	if c.Search.LexicalWeight < 0 || c.Search.LexicalWeight > 1 {
		return fmt.Errorf("lexical_weight must be between 0 and 1, got %f", c.Search.LexicalWeight)
	}
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return fmt.Errorf("semantic_weight must be between 0 and 1, got %f", c.Search.SemanticWeight)
	}

	// Validate weight sum
	sum := c.Search.LexicalWeight + c.Search.SemanticWeight
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("lexical_weight + semantic_weight must equal 1.0, got %.2f", sum)
	}

	if c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %f", c.Search.Threshold)
	}
	if c.Search.TopK < 0 {
		return fmt.Errorf("topk must be non-negative, got %d", c.Search.TopK)
	}
	if c.Search.ContextLines < 0 {
		return fmt.Errorf("context_lines must be non-negative, got %d", c.Search.ContextLines)
	}

	// Validate chunking
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("chunking.max_tokens must be positive, got %d", c.Chunking.MaxTokens)
	}
	if c.Chunking.OverlapTokens < 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		return fmt.Errorf("chunking.overlap_tokens must be in [0, max_tokens), got %d", c.Chunking.OverlapTokens)
	}
	if c.Chunking.FallbackWindow <= 0 {
		return fmt.Errorf("chunking.fallback_window must be positive, got %d", c.Chunking.FallbackWindow)
	}
	if c.Chunking.FallbackOverlap < 0 || c.Chunking.FallbackOverlap >= c.Chunking.FallbackWindow {
		return fmt.Errorf("chunking.fallback_overlap must be in [0, fallback_window), got %d", c.Chunking.FallbackOverlap)
	}

	// Validate index limits
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be non-negative, got %d", c.Index.Workers)
	}
	if c.Index.MaxFileSizeMB <= 0 {
		return fmt.Errorf("index.max_file_size_mb must be positive, got %d", c.Index.MaxFileSizeMB)
	}
	if c.Index.WatchDebounce != "" {
		if _, err := time.ParseDuration(c.Index.WatchDebounce); err != nil {
			return fmt.Errorf("index.watch_debounce is not a valid duration: %w", err)
		}
	}

	// Validate log level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	return nil
}

// WatchDebounceDuration returns the parsed watch debounce interval.
func (c *Config) WatchDebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Index.WatchDebounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

