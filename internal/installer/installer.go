// Package installer executes catalog install directives behind the risk
// gate, writing one immutable audit record per attempt.
package installer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/observability/logging"
	"github.com/capguard/capguard/internal/policy"
	"github.com/capguard/capguard/internal/risk"
	"github.com/google/go-containerregistry/pkg/name"
)

// Installer gates and runs install directives.
type Installer struct {
	Store  *catalog.Store
	Policy models.SecurityPolicy
	Engine *policy.Engine
	Runner Runner
	// DryRun logs the would-be command and records a zero exit code
	// without spawning anything.
	DryRun bool
	// Now is swappable for tests.
	Now func() time.Time
}

// Options are the per-invocation install parameters.
type Options struct {
	ID           string
	OverrideRisk bool
	Yes          bool
}

// ManualInstallError carries the item's free-text instructions when no
// automated installer applies.
type ManualInstallError struct {
	ID           string
	Instructions string
	URL          string
}

func (e *ManualInstallError) Error() string {
	msg := fmt.Sprintf("%s requires manual installation: %s", e.ID, e.Instructions)
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	return msg
}

// BlockedError signals a policy block; an audit record has already been
// written when this is returned.
type BlockedError struct {
	ID      string
	Tier    models.RiskTier
	Score   int
	Reasons []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked by security policy (%s, score=%d). Use --override-risk to force", e.Tier, e.Score)
}

// Install resolves the item, applies the gate, and runs the directive.
// Every attempt that reaches a policy decision leaves an audit record.
func (i *Installer) Install(ctx context.Context, opts Options) (*models.InstallAudit, error) {
	log := logging.From(ctx)
	now := i.clock()

	item, err := i.Store.ItemByID(opts.ID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("catalog entry not found: %s", opts.ID)
	}

	if item.Install.Kind == models.InstallKindManual {
		return nil, &ManualInstallError{
			ID:           item.ID,
			Instructions: item.Install.Instructions,
			URL:          item.Install.URL,
		}
	}

	quarantined, err := i.quarantinedIDs()
	if err != nil {
		return nil, err
	}

	assessment := risk.Assess(*item, i.Policy, now)
	blockReasons := i.blockReasons(*item, assessment, quarantined)

	if len(blockReasons) > 0 && !opts.OverrideRisk {
		audit := models.InstallAudit{
			ID:             opts.ID,
			RequestedAt:    now.UTC(),
			PolicyDecision: models.DecisionBlocked,
			OverrideUsed:   false,
			Installer:      item.Install.Kind,
			ExitCode:       1,
		}
		if _, err := i.Store.WriteAudit(audit); err != nil {
			return nil, err
		}
		return &audit, &BlockedError{
			ID:      opts.ID,
			Tier:    assessment.RiskTier,
			Score:   assessment.RiskScore,
			Reasons: blockReasons,
		}
	}

	if risk.IsWarnTier(assessment.RiskTier, i.Policy.InstallGate) {
		log.Warn("install", "security warning",
			"id", opts.ID, "tier", string(assessment.RiskTier), "score", assessment.RiskScore)
	}

	binary, args, err := buildCommand(item.Install, opts.Yes)
	if err != nil {
		return nil, err
	}

	// Container-targeted items must carry a parseable image reference
	// before anything is spawned.
	if hasTag(item.Compatibility, "container") && item.Install.Kind == models.InstallKindSkillSh {
		if _, err := name.ParseReference(item.Install.Target); err != nil {
			return nil, fmt.Errorf("invalid container reference %q: %w", item.Install.Target, err)
		}
	}

	decision := models.DecisionAllowed
	if opts.OverrideRisk && len(blockReasons) > 0 {
		decision = models.DecisionOverrideAllowed
	}

	exitCode := 0
	if i.DryRun {
		log.Info("install", "dry-run "+binary+" "+strings.Join(args, " "), "id", opts.ID)
	} else {
		if err := i.Runner.Look(binary); err != nil {
			return nil, fmt.Errorf("installer binary %q not found on PATH: %w", binary, err)
		}
		exitCode, err = i.Runner.Run(ctx, binary, args)
		if err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", binary, err)
		}
	}

	audit := models.InstallAudit{
		ID:             opts.ID,
		RequestedAt:    now.UTC(),
		PolicyDecision: decision,
		OverrideUsed:   opts.OverrideRisk && len(blockReasons) > 0,
		Installer:      item.Install.Kind,
		ExitCode:       exitCode,
	}
	if _, err := i.Store.WriteAudit(audit); err != nil {
		return nil, err
	}

	return &audit, nil
}

// buildCommand maps a directive to the external binary and its argv.
func buildCommand(directive models.InstallDirective, yes bool) (string, []string, error) {
	switch directive.Kind {
	case models.InstallKindSkillSh:
		args := append([]string{"install", directive.Target}, directive.Args...)
		if yes {
			args = append(args, "--yes")
		}
		return "skill.sh", args, nil
	case models.InstallKindGhCli:
		return "gh", append([]string{}, directive.Args...), nil
	default:
		return "", nil, fmt.Errorf("no automated installer for kind %q", directive.Kind)
	}
}

// blockReasons collects every reason the gate would block this item:
// live quarantine membership, blocked tier, failing gate rules.
func (i *Installer) blockReasons(item models.CatalogItem, assessment models.RiskAssessment, quarantined map[string]bool) []string {
	var reasons []string

	if quarantined[item.ID] {
		reasons = append(reasons, "Quarantined by whitelist verification")
	}
	if risk.IsBlockedTier(assessment.RiskTier, i.Policy.InstallGate) {
		reasons = append(reasons, fmt.Sprintf("Blocked by security policy tier: %s", assessment.RiskTier))
	}
	if i.Engine != nil && len(i.Policy.GateRules) > 0 {
		for _, result := range policy.FailedResults(i.Engine.EvaluateGate(i.Policy.GateRules, item, assessment)) {
			msg := result.FailureMsg
			if msg == "" {
				msg = "Gate rule failed: " + result.RuleName
			}
			reasons = append(reasons, msg)
		}
	}

	return reasons
}

func (i *Installer) quarantinedIDs() (map[string]bool, error) {
	entries, err := i.Store.LoadQuarantine()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(entries))
	for _, entry := range entries {
		ids[entry.ID] = true
	}
	return ids, nil
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

func (i *Installer) clock() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}
