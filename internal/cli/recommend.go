package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/capguard/capguard/internal/config"
	"github.com/capguard/capguard/internal/observability"
	"github.com/capguard/capguard/internal/observability/logging"
	otelobs "github.com/capguard/capguard/internal/observability/otel"
	"github.com/capguard/capguard/internal/project"
	"github.com/capguard/capguard/internal/ranking"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank catalog items for a project",
	Long: `Detects the project's stack from marker files, combines it with
an optional requirements profile, and ranks the catalog by fit, trust,
freshness, and risk.

Example:
  capguard recommend --project . --requirements reqs.yaml --top 5`,
	RunE: runRecommend,
}

var (
	recommendProjectFlag      string
	recommendRequirementsFlag string
	recommendKindsFlag        []string
	recommendTopFlag          int
	recommendJSONFlag         bool
)

func init() {
	recommendCmd.Flags().StringVar(&recommendProjectFlag, "project", ".", "Project directory to analyze")
	recommendCmd.Flags().StringVar(&recommendRequirementsFlag, "requirements", "", "Requirements profile (JSON or YAML)")
	recommendCmd.Flags().StringSliceVarP(&recommendKindsFlag, "kind", "k", nil, "Restrict ranking to these kinds")
	recommendCmd.Flags().IntVar(&recommendTopFlag, "top", 10, "Number of recommendations to show")
	recommendCmd.Flags().BoolVar(&recommendJSONFlag, "json", false, "Emit JSON instead of a table")
}

// GetRecommendCmd exports the recommend command
func GetRecommendCmd() *cobra.Command {
	return recommendCmd
}

func runRecommend(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	log := logging.From(ctx)

	if h := otelobs.From(ctx); h != nil {
		var span trace.Span
		ctx, span = h.Tracer.Start(ctx, "capguard.recommend",
			trace.WithAttributes(
				attribute.String("capguard.op_id", observability.OpID(ctx)),
				attribute.String("capguard.command", "recommend"),
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

	kinds, err := parseKinds(recommendKindsFlag)
	if err != nil {
		return err
	}

	requirements, err := config.LoadRequirementsProfile(recommendRequirementsFlag)
	if err != nil {
		return fmt.Errorf("loading requirements: %w", err)
	}

	loader := config.NewLoader(configDirFlag)
	rankingPolicy, err := loader.RankingPolicy()
	if err != nil {
		return fmt.Errorf("loading ranking policy: %w", err)
	}
	securityPolicy, err := loader.SecurityPolicy()
	if err != nil {
		return fmt.Errorf("loading security policy: %w", err)
	}

	store := catalog.NewStore(dataDirFlag)
	items, err := store.LoadItems()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	quarantineEntries, err := store.LoadQuarantine()
	if err != nil {
		return fmt.Errorf("loading quarantine: %w", err)
	}
	quarantined := make(map[string]bool, len(quarantineEntries))
	for _, entry := range quarantineEntries {
		quarantined[entry.ID] = true
	}

	signals := project.Detect(recommendProjectFlag)
	log.Debug("recommend", "project signals detected",
		"stack", signals.Stack, "tags", signals.CompatibilityTags)

	recs := ranking.Rank(items, ranking.Inputs{
		ProjectSignals: signals,
		Requirements:   requirements,
		RankingPolicy:  rankingPolicy,
		SecurityPolicy: securityPolicy,
		Quarantined:    quarantined,
		Kinds:          kinds,
		Now:            time.Now(),
	})

	if recommendTopFlag > 0 && len(recs) > recommendTopFlag {
		recs = recs[:recommendTopFlag]
	}

	if recommendJSONFlag {
		out, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for i, rec := range recs {
		status := ""
		if rec.Blocked {
			status = "  [BLOCKED: " + rec.BlockReason + "]"
		}
		fmt.Printf("%2d. %-40s %6.1f  %s/%d%s\n",
			i+1, rec.ID, rec.RankScore, rec.RiskTier, rec.RiskScore, status)
	}
	return nil
}
