package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/triagem/internal/logging"
	"github.com/ppiankov/triagem/internal/metrics"
	"github.com/ppiankov/triagem/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// envKeys are the config keys that may be set through TRIAGEM_* variables
var envKeys = []string{
	"checklist.path",
	"checklist.url",
	"checklist.ttl",
	"checklist.reload_backoff",
	"oracle.provider",
	"oracle.model",
	"oracle.api_key",
	"oracle.base_url",
	"oracle.timeout",
	"oracle.max_tokens",
	"oracle.excerpt_chars",
	"oracle.http_proxy",
	"oracle.https_proxy",
	"oracle.no_proxy",
	"matching.workers",
	"planner.notify_recipient",
	"planner.tax_id_field",
	"cache.enabled",
	"cache.dir",
	"rate_limiting.requests_per_second",
	"rate_limiting.burst_size",
	"output.log_level",
	"output.metrics_file",
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "triagem",
	Short: "Triagem - document checklist classification for business cases",
	Long: `Triagem validates the documents submitted for a business case against a
structured checklist of requirements.

For every checklist rule it finds the matching document (normalized name
matching first, an optional semantic oracle second), validates expiry dates
and required fields, and derives:
  - the case status (Approved, PendingBlocking, PendingNonBlocking)
  - blocking and non-blocking issues
  - automated remediation actions (move card, generate document, notify)

Actions are data only. Triagem never executes them.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command; cancelling ctx aborts in-flight classification
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Triagem.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("triagem %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.triagem/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.triagem")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// TRIAGEM_ORACLE_PROVIDER -> oracle.provider
	viper.SetEnvPrefix("TRIAGEM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file and TRIAGEM_* variables.
// Command flags are applied on top by each command.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if verbose {
		cfg.Output.Verbose = true
		cfg.Output.LogLevel = "debug"
	}
	applyProviderEnv(&cfg.Oracle)

	return cfg, nil
}

// applyProviderEnv fills credentials from the providers' conventional
// environment variables when the config leaves them empty
func applyProviderEnv(oracle *model.LLMConfig) {
	switch strings.ToLower(oracle.Provider) {
	case "openai":
		if oracle.APIKey == "" {
			oracle.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if oracle.APIKey == "" {
			oracle.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if oracle.BaseURL == "" {
			oracle.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

// session bundles what every classifying command needs
type session struct {
	cfg     *model.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newSession(cfg *model.Config) *session {
	return &session{
		cfg:     cfg,
		logger:  logging.New(cfg.Output.LogLevel),
		metrics: metrics.New(),
	}
}

// flush writes the metrics textfile when one is configured
func (s *session) flush() {
	if err := s.metrics.WriteTextfile(s.cfg.Output.MetricsFile); err != nil {
		s.logger.Warn("write metrics textfile", "path", s.cfg.Output.MetricsFile, "error", err)
	}
}
