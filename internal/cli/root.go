// Package cli wires the capguard command surface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/capguard/capguard/internal/observability"
	"github.com/capguard/capguard/internal/observability/logging"
	otelobs "github.com/capguard/capguard/internal/observability/otel"
	"github.com/capguard/capguard/internal/version"
	"github.com/spf13/cobra"
)

var (
	dataDirFlag   string
	configDirFlag string

	logFormatFlag string
	logLevelFlag  string
	logOutputFlag string

	otelFlag            bool
	otelEndpointFlag    string
	otelProtocolFlag    string
	otelInsecureFlag    bool
	otelSampleRatioFlag float64
)

var rootCmd = &cobra.Command{
	Use:   "capguard",
	Short: "Curated catalog of installable agent capabilities",
	Long: `capguard: a curation gate for third-party agent capabilities.
Syncs skills, MCP servers, and editor plugins from heterogeneous
registries into one vetted catalog, then gates installation on risk.`,
	Version:           version.BuildVersion(),
	PersistentPreRunE: setupContext,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		teardownContext(cmd.Context())
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDirFlag, "data-dir", "data", "Directory for catalog, whitelist, quarantine, and report state")
	pf.StringVar(&configDirFlag, "config-dir", "config", "Directory for registry and policy configuration")
	pf.StringVar(&logFormatFlag, "log-format", "jsonl", "Log format: jsonl or none")
	pf.StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&logOutputFlag, "log-output", "stderr", "Log output: stderr or a file path")
	pf.BoolVar(&otelFlag, "otel", false, "Enable OpenTelemetry tracing")
	pf.StringVar(&otelEndpointFlag, "otel-endpoint", "", "OTLP endpoint (defaults per protocol)")
	pf.StringVar(&otelProtocolFlag, "otel-protocol", otelobs.ProtocolHTTP, "OTLP protocol: otlphttp or otlpgrpc")
	pf.BoolVar(&otelInsecureFlag, "otel-insecure", false, "Allow insecure OTLP connections")
	pf.Float64Var(&otelSampleRatioFlag, "otel-sample-ratio", 1.0, "Trace sample ratio in [0,1]")

	rootCmd.AddCommand(GetSyncCmd())
	rootCmd.AddCommand(GetListCmd())
	rootCmd.AddCommand(GetAssessCmd())
	rootCmd.AddCommand(GetRecommendCmd())
	rootCmd.AddCommand(GetVerifyCmd())
	rootCmd.AddCommand(GetQuarantineCmd())
	rootCmd.AddCommand(GetInstallCmd())
	rootCmd.AddCommand(GetDoctorCmd())
}

// setupContext attaches the op id, logger, and optional tracer to the
// command context before any subcommand runs.
func setupContext(cmd *cobra.Command, args []string) error {
	ctx := observability.WithOpID(cmd.Context())

	log, err := logging.NewLogger(logging.Config{
		Format: logFormatFlag,
		Level:  logLevelFlag,
		Output: logOutputFlag,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	ctx = logging.WithLogger(ctx, log)

	if otelFlag {
		handle, err := otelobs.Init(ctx, otelobs.Config{
			Enabled:     true,
			Endpoint:    otelEndpointFlag,
			Protocol:    otelProtocolFlag,
			Insecure:    otelInsecureFlag,
			ServiceName: "capguard",
			SampleRatio: otelSampleRatioFlag,
		})
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		ctx = otelobs.WithHandle(ctx, handle)
	}

	cmd.SetContext(ctx)
	return nil
}

func teardownContext(ctx context.Context) {
	if h := otelobs.From(ctx); h != nil {
		_ = h.Shutdown(ctx)
	}
	_ = logging.From(ctx).Close()
}
