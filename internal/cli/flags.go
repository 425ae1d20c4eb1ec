package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/triagem/internal/model"
)

// overrides holds the flags shared by the classifying commands.
// A flag is applied only when set explicitly, so config and env stay in effect otherwise.
type overrides struct {
	checklistPath  string
	checklistURL   string
	oracleProvider string
	oracleModel    string
	oracleTimeout  time.Duration
	workers        int
	noCache        bool
	metricsFile    string
	httpProxy      string
	httpsProxy     string
}

func (o *overrides) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.checklistPath, "checklist", "", "checklist file (JSON or YAML)")
	flags.StringVar(&o.checklistURL, "checklist-url", "", "remote checklist URL")
	flags.StringVar(&o.oracleProvider, "oracle", "", "semantic matching provider (openai, anthropic, ollama)")
	flags.StringVar(&o.oracleModel, "oracle-model", "", "oracle model name")
	flags.DurationVar(&o.oracleTimeout, "oracle-timeout", 30*time.Second, "timeout for a single oracle call")
	flags.IntVar(&o.workers, "workers", 4, "rules evaluated in parallel per case")
	flags.BoolVar(&o.noCache, "no-cache", false, "disable oracle answer cache")
	flags.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	flags.StringVar(&o.httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.StringVar(&o.httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func (o *overrides) apply(cmd *cobra.Command, cfg *model.Config) {
	changed := cmd.Flags().Changed

	if changed("checklist") {
		cfg.Checklist.Path = o.checklistPath
	}
	if changed("checklist-url") {
		cfg.Checklist.Path = ""
		cfg.Checklist.URL = o.checklistURL
	}
	if changed("oracle") {
		cfg.Oracle.Provider = o.oracleProvider
	}
	if changed("oracle-model") {
		cfg.Oracle.Model = o.oracleModel
	}
	if changed("oracle-timeout") {
		cfg.Oracle.Timeout = o.oracleTimeout
	}
	if changed("workers") {
		cfg.Matching.Workers = o.workers
	}
	if o.noCache {
		cfg.Cache.Enabled = false
	}
	if changed("metrics-file") {
		cfg.Output.MetricsFile = o.metricsFile
	}
	if changed("http-proxy") {
		cfg.Oracle.HTTPProxy = o.httpProxy
	}
	if changed("https-proxy") {
		cfg.Oracle.HTTPSProxy = o.httpsProxy
	}

	applyProviderEnv(&cfg.Oracle)
}
