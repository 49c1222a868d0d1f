package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// API key precedence order:
// 1. Vault (if configured) - highest priority
// 2. Config file values
// 3. Environment variables (HIRESCOPE_ATS_APIKEY, GREENHOUSE_API_KEY, ...)
// 4. Default values - lowest priority
type Config struct {
	ATS           ATSConfig           `mapstructure:"ats"`
	AI            AIConfig            `mapstructure:"ai"`
	Report        ReportConfig        `mapstructure:"report"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ATSConfig holds applicant-tracking data source configuration.
type ATSConfig struct {
	BaseURL           string        `mapstructure:"baseUrl"`
	APIKey            string        `mapstructure:"apiKey"`
	PageSize          int           `mapstructure:"pageSize"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RateLimitWait     time.Duration `mapstructure:"rateLimitWait"`
	MaxAttempts       int           `mapstructure:"maxAttempts"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	Burst             int           `mapstructure:"burst"`
}

// AIConfig holds scoring service configuration.
type AIConfig struct {
	Provider       string               `mapstructure:"provider"`
	Model          string               `mapstructure:"model"`
	APIKey         string               `mapstructure:"apiKey"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxAttempts    int                  `mapstructure:"maxAttempts"`
	BackoffStep    time.Duration        `mapstructure:"backoffStep"`
	Temperature    float32              `mapstructure:"temperature"`
	Pricing        PricingConfig        `mapstructure:"pricing"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PricingConfig holds per-1000-token rates for cost estimation.
type PricingConfig struct {
	InputPer1K     float64 `mapstructure:"inputPer1K"`
	OutputPer1K    float64 `mapstructure:"outputPer1K"`
	ReasoningPer1K float64 `mapstructure:"reasoningPer1K"`
}

// CircuitBreakerConfig represents circuit breaker configuration for the
// scoring service.
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold"`
}

// ReportConfig holds report generation configuration.
type ReportConfig struct {
	OutputDir         string `mapstructure:"outputDir"`
	TopCandidates     int    `mapstructure:"topCandidates"`
	HiddenGemMinScore int    `mapstructure:"hiddenGemMinScore"`
}

// AppConfig holds general application configuration.
type AppConfig struct {
	LogLevel        string `mapstructure:"logLevel"`
	CheckpointEvery int    `mapstructure:"checkpointEvery"`
}

// ObservabilityConfig holds tracing configuration.
type ObservabilityConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ServiceName    string  `mapstructure:"serviceName"`
	ServiceVersion string  `mapstructure:"serviceVersion"`
	Exporter       string  `mapstructure:"exporter"` // "stdout" or "otlp"
	OTLPEndpoint   string  `mapstructure:"otlpEndpoint"`
	SampleRate     float64 `mapstructure:"sampleRate"`
}

// LoadConfig loads configuration from defaults, a config file, environment
// variables, and (optionally) Vault.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("HIRESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/hirescope/")
	v.AddConfigPath("$HOME/.hirescope")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Data source
	v.SetDefault("ats.baseUrl", "https://harvest.greenhouse.io/v1")
	v.SetDefault("ats.apiKey", "")
	v.SetDefault("ats.pageSize", 100)
	v.SetDefault("ats.timeout", 60*time.Second)
	v.SetDefault("ats.rateLimitWait", 60*time.Second)
	v.SetDefault("ats.maxAttempts", 5)
	v.SetDefault("ats.requestsPerSecond", 8.0)
	v.SetDefault("ats.burst", 8)

	// Scoring service
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.timeout", 120*time.Second)
	v.SetDefault("ai.maxAttempts", 3)
	v.SetDefault("ai.backoffStep", 30*time.Second)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.pricing.inputPer1K", 0.015)
	v.SetDefault("ai.pricing.outputPer1K", 0.060)
	v.SetDefault("ai.pricing.reasoningPer1K", 0.060)

	// Circuit breaker (disabled by default for a sequential batch tool)
	v.SetDefault("ai.circuitBreaker.enabled", false)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 120*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 5)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Reports
	v.SetDefault("report.outputDir", "analysis_results")
	v.SetDefault("report.topCandidates", 10)
	v.SetDefault("report.hiddenGemMinScore", 70)

	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.checkpointEvery", 10)

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.atsKey", "")
	v.SetDefault("vault.secrets.aiKey", "")

	// Observability
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "hirescope")
	v.SetDefault("observability.serviceVersion", "dev")
	v.SetDefault("observability.exporter", "stdout")
	v.SetDefault("observability.otlpEndpoint", "localhost:4318")
	v.SetDefault("observability.sampleRate", 1.0)
}

// applyFallbacks applies the well-known environment variable names used by
// the hosted services when the prefixed variables are not set.
func (c *Config) applyFallbacks() {
	if c.ATS.APIKey == "" {
		c.ATS.APIKey = os.Getenv("GREENHOUSE_API_KEY")
	}
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.App.LogLevel)
	}

	if c.ATS.PageSize <= 0 {
		return fmt.Errorf("ats.pageSize must be positive, got %d", c.ATS.PageSize)
	}
	if c.ATS.MaxAttempts < 1 {
		return fmt.Errorf("ats.maxAttempts must be at least 1, got %d", c.ATS.MaxAttempts)
	}
	if c.AI.MaxAttempts < 1 {
		return fmt.Errorf("ai.maxAttempts must be at least 1, got %d", c.AI.MaxAttempts)
	}
	if c.AI.Provider != "gemini" {
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}
	if c.Report.TopCandidates < 1 {
		return fmt.Errorf("report.topCandidates must be at least 1, got %d", c.Report.TopCandidates)
	}
	if c.App.CheckpointEvery < 1 {
		return fmt.Errorf("app.checkpointEvery must be at least 1, got %d", c.App.CheckpointEvery)
	}

	if p := c.AI.Pricing; p.InputPer1K < 0 || p.OutputPer1K < 0 || p.ReasoningPer1K < 0 {
		return fmt.Errorf("ai.pricing rates must not be negative")
	}

	return nil
}
