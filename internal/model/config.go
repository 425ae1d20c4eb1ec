package model

import "time"

// Config holds all runtime configuration
type Config struct {
	Checklist    ChecklistConfig    `mapstructure:"checklist" yaml:"checklist"`
	Oracle       LLMConfig          `mapstructure:"oracle" yaml:"oracle"`
	Matching     MatchingConfig     `mapstructure:"matching" yaml:"matching"`
	Planner      PlannerConfig      `mapstructure:"planner" yaml:"planner"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output"`
}

// ChecklistConfig locates the checklist source and controls its cache
type ChecklistConfig struct {
	Path          string        `mapstructure:"path" yaml:"path"`                     // Explicit file, takes precedence over search paths
	SearchPaths   []string      `mapstructure:"search_paths" yaml:"search_paths"`     // Tried in order when Path is empty
	URL           string        `mapstructure:"url" yaml:"url"`                       // Remote checklist, used when no file is configured
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`                       // Snapshot lifetime
	ReloadBackoff time.Duration `mapstructure:"reload_backoff" yaml:"reload_backoff"` // Minimum gap between failed reloads and between mtime checks
}

// LLMConfig configures the semantic matching oracle
type LLMConfig struct {
	Provider     string        `mapstructure:"provider" yaml:"provider"` // "", openai, anthropic, ollama
	Model        string        `mapstructure:"model" yaml:"model"`
	APIKey       string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"` // Per-rule oracle call timeout
	MaxTokens    int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	ExcerptChars int           `mapstructure:"excerpt_chars" yaml:"excerpt_chars"`
	HTTPProxy    string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy      string        `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// MatchingConfig controls per-run rule evaluation
type MatchingConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"` // Rules evaluated in parallel within one run
}

// PlannerConfig controls action derivation
type PlannerConfig struct {
	PhaseMapping    map[string]string `mapstructure:"phase_mapping" yaml:"phase_mapping,omitempty"`
	NotifyRecipient string            `mapstructure:"notify_recipient" yaml:"notify_recipient"`
	TaxIDField      string            `mapstructure:"tax_id_field" yaml:"tax_id_field"`
}

// CacheConfig controls oracle answer memoization
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir       string        `mapstructure:"dir" yaml:"dir"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// RateLimitingConfig paces oracle requests
type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size"`
}

// OutputConfig controls logging and artifacts
type OutputConfig struct {
	Verbose     bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file,omitempty"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Checklist: ChecklistConfig{
			SearchPaths: []string{
				"knowledge/checklist.json",
				"knowledge/checklist.yaml",
				"/etc/triagem/checklist.json",
			},
			TTL:           30 * time.Minute,
			ReloadBackoff: 30 * time.Second,
		},
		Oracle: LLMConfig{
			Provider:     "", // Disabled by default
			Timeout:      30 * time.Second,
			MaxTokens:    300,
			ExcerptChars: 500,
		},
		Matching: MatchingConfig{
			Workers: 4,
		},
		Planner: PlannerConfig{
			NotifyRecipient: "gestor_comercial",
			TaxIDField:      "cnpj",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".triagem-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Output: OutputConfig{
			LogLevel: "info",
		},
	}
}
