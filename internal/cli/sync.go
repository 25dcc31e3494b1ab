package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/capguard/capguard/internal/config"
	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/observability"
	"github.com/capguard/capguard/internal/observability/logging"
	otelobs "github.com/capguard/capguard/internal/observability/otel"
	"github.com/capguard/capguard/internal/registry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync registries into the catalog",
	Long: `Resolves every enabled registry (remote with local fallback),
normalizes entries through the registry's adapter, merges duplicates,
and persists the reconciled catalog.

Example:
  capguard sync --kind mcp --show-drift`,
	RunE: runSync,
}

var (
	syncKindsFlag   []string
	syncDriftFlag   bool
	syncOfflineFlag bool
)

func init() {
	syncCmd.Flags().StringSliceVarP(&syncKindsFlag, "kind", "k", nil, "Restrict the run to these kinds")
	syncCmd.Flags().BoolVar(&syncDriftFlag, "show-drift", false, "Report catalog drift against the previous run")
	syncCmd.Flags().BoolVar(&syncOfflineFlag, "offline", false, "Force local-only resolution")
}

// GetSyncCmd exports the sync command
func GetSyncCmd() *cobra.Command {
	return syncCmd
}

func runSync(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	log := logging.From(ctx)
	start := time.Now()

	if h := otelobs.From(ctx); h != nil {
		var span trace.Span
		ctx, span = h.Tracer.Start(ctx, "capguard.sync",
			trace.WithAttributes(
				attribute.String("capguard.op_id", observability.OpID(ctx)),
				attribute.String("capguard.command", "sync"),
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

	log.Event(ctx, "sync.start", nil)

	var resultStatus string
	defer func() {
		log.Event(ctx, "sync.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	kinds, err := parseKinds(syncKindsFlag)
	if err != nil {
		resultStatus = "fail"
		return err
	}

	loader := config.NewLoader(configDirFlag)
	registries, err := loader.Registries()
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("loading registries: %w", err)
	}
	providers, err := loader.Providers()
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("loading providers: %w", err)
	}

	offline := syncOfflineFlag || os.Getenv("CAPGUARD_OFFLINE") == "1"

	syncer := &catalog.Syncer{
		Store: catalog.NewStore(dataDirFlag),
		Resolver: registry.New(registry.Config{
			Offline:   offline,
			LookupEnv: os.LookupEnv,
		}),
		Registries: registries,
		Providers:  providers,
		Today:      os.Getenv("CAPGUARD_SYNC_TODAY"),
	}

	result, err := syncer.Run(ctx, catalog.Options{Kinds: kinds, TrackDrift: syncDriftFlag})
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Synced %d catalog items\n", len(result.Items))
	for _, id := range result.Skipped {
		fmt.Printf("Skipped by provider policy: %s\n", id)
	}
	for id, regErr := range result.Failed {
		fmt.Printf("Registry %s failed: %v\n", id, regErr)
	}
	for _, id := range result.StaleRegistries {
		fmt.Printf("Stale registry: %s\n", id)
	}
	if result.Drift != nil {
		if result.Drift.HasChanges {
			for _, d := range result.Drift.Items {
				fmt.Println(catalog.FormatDrift(d))
			}
		} else {
			fmt.Println("No catalog drift")
		}
	}

	if len(result.Failed) > 0 {
		resultStatus = "partial"
	} else {
		resultStatus = "success"
	}
	return nil
}

func parseKinds(values []string) ([]models.Kind, error) {
	kinds := make([]models.Kind, 0, len(values))
	for _, v := range values {
		k := models.Kind(v)
		if !models.ValidKind(k) {
			return nil, fmt.Errorf("unknown kind %q (valid: %v)", v, models.Kinds())
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
