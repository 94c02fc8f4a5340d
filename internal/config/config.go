package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Completion CompletionConfig `yaml:"completion"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Import     ImportConfig     `yaml:"import"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	JWTSecret      string   `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig enables the completion cache when URL is set.
type RedisConfig struct {
	URL             string `yaml:"url"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

func (r RedisConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLMinutes) * time.Minute
}

// CompletionConfig selects the text-completion provider used by the AI
// similarity path. Provider "none" disables AI and forces lexical scoring.
type CompletionConfig struct {
	Provider         string  `yaml:"provider"`
	Model            string  `yaml:"model"`
	APIKey           string  `yaml:"api_key"`
	FallbackProvider string  `yaml:"fallback_provider"`
	FallbackModel    string  `yaml:"fallback_model"`
	FallbackAPIKey   string  `yaml:"fallback_api_key"`
	CLIPath          string  `yaml:"cli_path"`
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
}

func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SimilarityConfig holds every weight and threshold of the duplicate checker.
type SimilarityConfig struct {
	// SimilarityThreshold is the default duplicate threshold when the caller supplies none.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// MinSimilarity is the floor below which matches are dropped from results.
	MinSimilarity float64 `yaml:"min_similarity"`
	// MaxComparisons caps the existing questions sent to the completion service.
	MaxComparisons int `yaml:"max_comparisons"`
	// MinAIPool is the smallest pool worth a completion call; smaller pools are scored lexically.
	MinAIPool int `yaml:"min_ai_pool"`
	// PoolLimit caps the shared candidate pool fetched once per batch.
	PoolLimit int `yaml:"pool_limit"`

	// rejectThreshold = max(threshold, RejectFloor)
	RejectFloor float64 `yaml:"reject_floor"`
	// reviewThreshold = max(threshold - ReviewMargin, ReviewFloor)
	ReviewFloor  float64 `yaml:"review_floor"`
	ReviewMargin float64 `yaml:"review_margin"`

	StemWeight        float64 `yaml:"stem_weight"`
	OptionsWeight     float64 `yaml:"options_weight"`
	ExplanationWeight float64 `yaml:"explanation_weight"`
	MinTokenLength    int     `yaml:"min_token_length"`

	// When correct answers overlap above CorrectAnswerOverlap while stems stay
	// below StemDivergence, options similarity is multiplied by SharedAnswerPenalty.
	CorrectAnswerOverlap float64 `yaml:"correct_answer_overlap"`
	StemDivergence       float64 `yaml:"stem_divergence"`
	SharedAnswerPenalty  float64 `yaml:"shared_answer_penalty"`

	FallbackReviewThreshold float64 `yaml:"fallback_review_threshold"`
	FallbackConfidence      float64 `yaml:"fallback_confidence"`

	// Pacing is "fixed" (sleep BatchDelayMs between AI calls) or "token_bucket".
	Pacing       string  `yaml:"pacing"`
	BatchDelayMs int     `yaml:"batch_delay_ms"`
	RequestsPerS float64 `yaml:"requests_per_second"`
	Burst        int     `yaml:"burst"`
}

func (s SimilarityConfig) BatchDelay() time.Duration {
	return time.Duration(s.BatchDelayMs) * time.Millisecond
}

type ImportConfig struct {
	MaxQuestions int `yaml:"max_questions"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{Similarity: DefaultSimilarity()}
	applyDefaults(cfg)
	return cfg
}

// DefaultSimilarity returns the documented checker defaults. Load starts from
// these before reading the file, so an explicit 0 in YAML or the environment
// is kept.
func DefaultSimilarity() SimilarityConfig {
	return SimilarityConfig{
		SimilarityThreshold:     0.8,
		MinSimilarity:           0.6,
		MaxComparisons:          100,
		MinAIPool:               3,
		PoolLimit:               200,
		RejectFloor:             0.9,
		ReviewFloor:             0.7,
		ReviewMargin:            0.1,
		StemWeight:              0.5,
		OptionsWeight:           0.3,
		ExplanationWeight:       0.2,
		MinTokenLength:          3,
		CorrectAnswerOverlap:    0.8,
		StemDivergence:          0.7,
		SharedAnswerPenalty:     0.5,
		FallbackReviewThreshold: 0.8,
		FallbackConfidence:      0.7,
		Pacing:                  "fixed",
		BatchDelayMs:            500,
		RequestsPerS:            2,
		Burst:                   1,
	}
}

// Load reads config from path (or defaults when path is empty), expands
// ${VAR} references, applies environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	cfg := Config{Similarity: DefaultSimilarity()}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	expandConfigEnvVars(&cfg)
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// FindConfigPath looks for config in common locations. An empty result
// means "run on defaults and environment".
func FindConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}

	paths := []string{
		"interview-prep.yaml",
		"interview-prep.yml",
		filepath.Join("config", "interview-prep.yaml"),
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homePath := filepath.Join(home, ".config", "interview-prep", "config.yaml")
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}

	return ""
}

// applyEnvOverrides maps the service's environment variables onto cfg.
// Environment wins over the file.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.JWTSecret, "JWT_SECRET")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")

	setString(&cfg.Redis.URL, "REDIS_URL")

	setString(&cfg.Completion.Provider, "COMPLETION_PROVIDER")
	if os.Getenv("USE_CLI_GENERATOR") == "true" {
		cfg.Completion.Provider = "cli"
	} else if os.Getenv("MOCK_GENERATOR") == "true" {
		cfg.Completion.Provider = "mock"
	}
	setString(&cfg.Completion.CLIPath, "CLAUDE_CLI_PATH")

	switch cfg.Completion.Provider {
	case "", "anthropic":
		setString(&cfg.Completion.Model, "ANTHROPIC_MODEL")
		setString(&cfg.Completion.APIKey, "ANTHROPIC_API_KEY")
	case "openai":
		setString(&cfg.Completion.Model, "OPENAI_MODEL")
		setString(&cfg.Completion.APIKey, "OPENAI_API_KEY")
	case "gemini":
		setString(&cfg.Completion.Model, "GEMINI_MODEL")
		setString(&cfg.Completion.APIKey, "GEMINI_API_KEY")
	}
	switch cfg.Completion.FallbackProvider {
	case "anthropic":
		setString(&cfg.Completion.FallbackAPIKey, "ANTHROPIC_API_KEY")
	case "openai":
		setString(&cfg.Completion.FallbackAPIKey, "OPENAI_API_KEY")
	case "gemini":
		setString(&cfg.Completion.FallbackAPIKey, "GEMINI_API_KEY")
	}

	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Similarity.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("SIMILARITY_BATCH_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Similarity.BatchDelayMs = n
		}
	}
}

// applyDefaults sets default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	db := &cfg.Database
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == "" {
		db.Port = "5432"
	}
	if db.User == "" {
		db.User = "interview_user"
	}
	if db.Password == "" {
		db.Password = "interview_password"
	}
	if db.Name == "" {
		db.Name = "interview_prep"
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.MaxOpenConns == 0 {
		db.MaxOpenConns = 25
	}
	if db.MaxIdleConns == 0 {
		db.MaxIdleConns = 5
	}

	if cfg.Redis.CacheTTLMinutes == 0 {
		cfg.Redis.CacheTTLMinutes = 24 * 60
	}

	c := &cfg.Completion
	if c.Provider == "" {
		c.Provider = "anthropic"
	}
	if c.Model == "" {
		c.Model = defaultModel(c.Provider)
	}
	if c.FallbackProvider != "" && c.FallbackModel == "" {
		c.FallbackModel = defaultModel(c.FallbackProvider)
	}
	if c.CLIPath == "" {
		c.CLIPath = "claude"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 60
	}

	if cfg.Import.MaxQuestions == 0 {
		cfg.Import.MaxQuestions = 100
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-5-20250929"
	case "openai":
		return "gpt-4o-mini"
	case "gemini":
		return "gemini-2.0-flash"
	case "cli":
		return "claude-cli"
	default:
		return provider
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	c.Server.JWTSecret = mask(c.Server.JWTSecret)
	c.Database.Password = mask(c.Database.Password)
	c.Completion.APIKey = mask(c.Completion.APIKey)
	c.Completion.FallbackAPIKey = mask(c.Completion.FallbackAPIKey)
	if u, err := url.Parse(c.Redis.URL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "****")
			c.Redis.URL = u.String()
		}
	}
	c.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return c
}
