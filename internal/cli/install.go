package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/capguard/capguard/internal/config"
	"github.com/capguard/capguard/internal/installer"
	"github.com/capguard/capguard/internal/observability"
	"github.com/capguard/capguard/internal/observability/logging"
	otelobs "github.com/capguard/capguard/internal/observability/otel"
	"github.com/capguard/capguard/internal/policy"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var installCmd = &cobra.Command{
	Use:   "install <id>",
	Short: "Install a catalog item",
	Long: `Runs the item's install directive behind the risk gate. Blocked
items require --override-risk; every attempt leaves an audit record.

Example:
  capguard install mcp:filesystem --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

var (
	installOverrideFlag bool
	installYesFlag      bool
	installDryRunFlag   bool
)

func init() {
	installCmd.Flags().BoolVar(&installOverrideFlag, "override-risk", false, "Proceed despite a policy block")
	installCmd.Flags().BoolVarP(&installYesFlag, "yes", "y", false, "Pass non-interactive confirmation to the installer")
	installCmd.Flags().BoolVar(&installDryRunFlag, "dry-run", false, "Log the command without executing it")
}

// GetInstallCmd exports the install command
func GetInstallCmd() *cobra.Command {
	return installCmd
}

func runInstall(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	log := logging.From(ctx)
	id := args[0]

	if h := otelobs.From(ctx); h != nil {
		var span trace.Span
		ctx, span = h.Tracer.Start(ctx, "capguard.install",
			trace.WithAttributes(
				attribute.String("capguard.op_id", observability.OpID(ctx)),
				attribute.String("capguard.command", "install"),
				attribute.String("capguard.item_id", id),
			))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed")
			} else {
				span.SetStatus(codes.Ok, "success")
			}
			span.End()
		}()
	}

	securityPolicy, err := config.NewLoader(configDirFlag).SecurityPolicy()
	if err != nil {
		return fmt.Errorf("loading security policy: %w", err)
	}

	engine, err := policy.NewEngine()
	if err != nil {
		return fmt.Errorf("initializing policy engine: %w", err)
	}

	inst := &installer.Installer{
		Store:  catalog.NewStore(dataDirFlag),
		Policy: securityPolicy,
		Engine: engine,
		Runner: installer.NewRunner(),
		DryRun: installDryRunFlag || os.Getenv("CAPGUARD_INSTALL_DRY_RUN") == "1",
	}

	audit, err := inst.Install(ctx, installer.Options{
		ID:           id,
		OverrideRisk: installOverrideFlag,
		Yes:          installYesFlag,
	})
	if err != nil {
		var manual *installer.ManualInstallError
		if errors.As(err, &manual) {
			fmt.Printf("Manual installation required for %s:\n  %s\n", manual.ID, manual.Instructions)
			if manual.URL != "" {
				fmt.Printf("  %s\n", manual.URL)
			}
			return nil
		}

		var blocked *installer.BlockedError
		if errors.As(err, &blocked) {
			for _, reason := range blocked.Reasons {
				fmt.Printf("  %s\n", reason)
			}
		}
		return err
	}

	log.Info("install", "install completed",
		"id", id, "decision", audit.PolicyDecision, "exit_code", audit.ExitCode)

	if audit.ExitCode != 0 {
		return fmt.Errorf("installer exited with code %d", audit.ExitCode)
	}
	fmt.Printf("Installed %s (decision=%s)\n", id, audit.PolicyDecision)
	return nil
}
