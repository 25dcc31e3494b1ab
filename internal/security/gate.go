// Package security implements the whitelist verification and quarantine
// gate over the persisted catalog.
package security

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
)

// Gate verifies whitelisted ids against current policy and moves
// failures into quarantine.
type Gate struct {
	Store  *catalog.Store
	Policy models.SecurityPolicy
	Engine *policy.Engine
	// Now is swappable for tests.
	Now func() time.Time
}

// VerifyResult is one verification run's report and its on-disk path.
type VerifyResult struct {
	ReportPath string
	Report     models.SecurityReport
}

// ApplyResult reports what one quarantine application changed.
type ApplyResult struct {
	RemovedFromWhitelist []string
	Quarantined          []models.QuarantineEntry
}

// Verify recomputes every whitelisted id's risk assessment against the
// current policy and writes a date-stamped report. An id whose catalog
// item is missing fails at critical tier; past approvals carry no
// weight.
func (g *Gate) Verify(ctx context.Context) (*VerifyResult, error) {
	log := logging.From(ctx)
	now := g.clock()

	whitelist, err := g.Store.LoadWhitelist()
	if err != nil {
		return nil, err
	}
	state, err := g.Store.LoadSyncState()
	if err != nil {
		return nil, err
	}

	passed := []string{}
	failed := []models.ReportFailure{}

	for _, id := range whitelist {
		item, err := g.Store.ItemByID(id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			failed = append(failed, models.ReportFailure{
				ID:        id,
				RiskTier:  models.RiskTierCritical,
				RiskScore: 100,
				Reasons:   []string{"Catalog item missing"},
			})
			continue
		}

		assessment := risk.Assess(*item, g.Policy, now)

		if risk.IsBlockedTier(assessment.RiskTier, g.Policy.InstallGate) {
			failed = append(failed, models.ReportFailure{
				ID:        id,
				RiskTier:  assessment.RiskTier,
				RiskScore: assessment.RiskScore,
				Reasons:   assessment.Reasons,
			})
			continue
		}

		if reasons := g.failedGateRules(*item, assessment); len(reasons) > 0 {
			failed = append(failed, models.ReportFailure{
				ID:        id,
				RiskTier:  assessment.RiskTier,
				RiskScore: assessment.RiskScore,
				Reasons:   reasons,
			})
			continue
		}

		passed = append(passed, id)
	}

	report := models.SecurityReport{
		GeneratedAt:     now.UTC(),
		StaleRegistries: catalog.StaleRegistries(state, now),
		Passed:          passed,
		Failed:          failed,
	}

	reportPath, err := g.Store.WriteReport(report)
	if err != nil {
		return nil, err
	}

	log.Info("verify", "whitelist verification report written",
		"path", reportPath, "passed", len(passed), "failed", len(failed))

	return &VerifyResult{ReportPath: reportPath, Report: report}, nil
}

// ApplyQuarantine consumes a verification report: every failing id is
// removed from the whitelist and upserted into quarantine. Re-applying
// the same report changes nothing beyond timestamps.
func (g *Gate) ApplyQuarantine(ctx context.Context, reportPath string) (*ApplyResult, error) {
	log := logging.From(ctx)
	now := g.clock()

	report, err := g.Store.ReadReport(reportPath)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	whitelist, err := g.Store.LoadWhitelist()
	if err != nil {
		return nil, err
	}

	failedIDs := make(map[string]bool, len(report.Failed))
	for _, failure := range report.Failed {
		failedIDs[failure.ID] = true
	}

	var kept, removed []string
	for _, id := range whitelist {
		if failedIDs[id] {
			removed = append(removed, id)
		} else {
			kept = append(kept, id)
		}
	}

	if err := g.Store.SaveWhitelist(kept); err != nil {
		return nil, err
	}

	existing, err := g.Store.LoadQuarantine()
	if err != nil {
		return nil, err
	}

	incoming := make([]models.QuarantineEntry, 0, len(report.Failed))
	for _, failure := range report.Failed {
		incoming = append(incoming, models.QuarantineEntry{
			ID:            failure.ID,
			Reason:        joinReasons(failure.Reasons),
			QuarantinedAt: now.UTC(),
		})
	}

	// SaveQuarantine dedupes by id with last write winning, so
	// appending the incoming entries upserts them.
	if err := g.Store.SaveQuarantine(append(existing, incoming...)); err != nil {
		return nil, err
	}

	log.Info("quarantine", "quarantine applied from report",
		"path", reportPath, "removed", len(removed), "quarantined", len(incoming))

	return &ApplyResult{RemovedFromWhitelist: removed, Quarantined: incoming}, nil
}

func (g *Gate) failedGateRules(item models.CatalogItem, assessment models.RiskAssessment) []string {
	if g.Engine == nil || len(g.Policy.GateRules) == 0 {
		return nil
	}

	var reasons []string
	for _, result := range policy.FailedResults(g.Engine.EvaluateGate(g.Policy.GateRules, item, assessment)) {
		msg := result.FailureMsg
		if msg == "" {
			msg = "Gate rule failed: " + result.RuleName
		}
		reasons = append(reasons, msg)
	}
	return reasons
}

func (g *Gate) clock() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func joinReasons(reasons []string) string {
	return strings.Join(reasons, " | ")
}
