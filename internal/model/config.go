package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete clauselens configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Match        MatchConfig        `yaml:"match" mapstructure:"match"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Guardrails   GuardrailsConfig   `yaml:"guardrails" mapstructure:"guardrails"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Storage      StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
}

// LLMConfig selects and tunes the analysis model
type LLMConfig struct {
	Provider     string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, gemini, ollama
	Model        string        `yaml:"model" mapstructure:"model"`
	APIKey       string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL      string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout      int           `yaml:"timeout" mapstructure:"timeout"` // seconds per attempt
	MaxTokens    int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature  float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"` // multiplied by attempt number
	StrictSchema bool          `yaml:"strict_schema" mapstructure:"strict_schema"`
}

// MatchConfig holds the evidence matching policy
type MatchConfig struct {
	EvidenceThreshold float64 `yaml:"evidence_threshold" mapstructure:"evidence_threshold"`
	FallbackThreshold float64 `yaml:"fallback_threshold" mapstructure:"fallback_threshold"`
	WordWeight        float64 `yaml:"word_weight" mapstructure:"word_weight"`
	TrigramWeight     float64 `yaml:"trigram_weight" mapstructure:"trigram_weight"`
}

// HTTPConfig configures URL fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures analysis caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig bounds request rates per LLM provider and per fetched host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	// LLMRequestsPerSecond overrides the rate for the configured provider;
	// zero keeps RequestsPerSecond
	LLMRequestsPerSecond float64 `yaml:"llm_requests_per_second" mapstructure:"llm_requests_per_second"`
	LLMBurstSize         int     `yaml:"llm_burst_size" mapstructure:"llm_burst_size"`
}

// GuardrailsConfig controls input screening
type GuardrailsConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	AllowSensitive bool `yaml:"allow_sensitive" mapstructure:"allow_sensitive"` // warn instead of refuse
	MaxInputChars  int  `yaml:"max_input_chars" mapstructure:"max_input_chars"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	Color         bool   `yaml:"color" mapstructure:"color"`
	Format        string `yaml:"format" mapstructure:"format"` // json, yaml
}

// StorageConfig configures optional report archival to S3-compatible storage
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	Region    string `yaml:"region" mapstructure:"region"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	AccessKey string `yaml:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key,omitempty" mapstructure:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`

	// ClientRequestsPerMinute caps analyze calls per client IP; zero disables
	ClientRequestsPerMinute int `yaml:"client_requests_per_minute" mapstructure:"client_requests_per_minute"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	cacheDir := ".clauselens-cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".clauselens", "cache")
	}

	return &Config{
		LLM: LLMConfig{
			Provider:     "openai",
			Model:        DefaultModelID,
			Timeout:      120,
			MaxTokens:    4096,
			Temperature:  0.5,
			MaxRetries:   2,
			RetryDelay:   time.Second,
			StrictSchema: true,
		},
		Match: MatchConfig{
			EvidenceThreshold: 0.25,
			FallbackThreshold: 0.35,
			WordWeight:        0.4,
			TrigramWeight:     0.6,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Clauselens/0.1 (+https://github.com/ppiankov/clauselens)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond:    2,
			BurstSize:            2,
			LLMRequestsPerSecond: 1,
			LLMBurstSize:         2,
		},
		Guardrails: GuardrailsConfig{
			Enabled:       true,
			MaxInputChars: 20000,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Color:         true,
			Format:        "json",
		},
		Storage: StorageConfig{
			Region: "us-east-1",
			Bucket: "clauselens-reports",
			UseSSL: true,
		},
		Server: ServerConfig{
			Addr:                    ":8080",
			AllowedOrigins:          []string{"*"},
			ReadTimeout:             15 * time.Second,
			WriteTimeout:            5 * time.Minute,
			ClientRequestsPerMinute: 20,
		},
	}
}
