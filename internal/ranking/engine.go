// Package ranking scores catalog items against a project's detected
// signals and explicit requirements, producing an ordered, explainable
// recommendation list.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/project"
	"github.com/capguard/capguard/internal/risk"
)

// Inputs carries everything one ranking call needs besides the catalog.
type Inputs struct {
	ProjectSignals project.Signals
	Requirements   models.RequirementsProfile
	RankingPolicy  models.RankingPolicy
	SecurityPolicy models.SecurityPolicy
	Quarantined    map[string]bool
	Kinds          []models.Kind
	Now            time.Time
}

// Rank scores every catalog item and returns recommendations sorted
// descending by rank score. Ties break by trust sub-score descending,
// then risk score ascending, then id.
func Rank(items []models.CatalogItem, in Inputs) []models.Recommendation {
	kindFilter := map[models.Kind]bool{}
	for _, k := range in.Kinds {
		kindFilter[k] = true
	}

	recs := make([]models.Recommendation, 0, len(items))
	for _, item := range items {
		if len(kindFilter) > 0 && !kindFilter[item.Kind] {
			continue
		}
		recs = append(recs, rankCandidate(item, in))
	}

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.RankScore != b.RankScore {
			return a.RankScore > b.RankScore
		}
		if a.ScoreBreakdown.TrustScore != b.ScoreBreakdown.TrustScore {
			return a.ScoreBreakdown.TrustScore > b.ScoreBreakdown.TrustScore
		}
		if a.RiskScore != b.RiskScore {
			return a.RiskScore < b.RiskScore
		}
		return a.ID < b.ID
	})

	return recs
}

func rankCandidate(candidate models.CatalogItem, in Inputs) models.Recommendation {
	assessment := risk.Assess(candidate, in.SecurityPolicy, in.Now)
	weights := in.RankingPolicy.Weights

	compatTags := append([]string{}, in.ProjectSignals.CompatibilityTags...)
	compatTags = append(compatTags, in.Requirements.Stack...)

	compatibilityScore := overlapScore(candidate.Compatibility, compatTags)
	capabilityScore := overlapScore(candidate.Capabilities, in.Requirements.RequiredCapabilities)

	fitScore := compatibilityScore*(weights.Compatibility/100) +
		capabilityScore*(weights.CapabilityCoverage/100)

	trustScore := candidate.MaintenanceSignal*(weights.Maintenance/100) +
		candidate.ProvenanceSignal*(weights.Provenance/100) +
		candidate.AdoptionSignal*(weights.Adoption/100)

	freshnessBonus := candidate.FreshnessSignal / 100 * weights.FreshnessBonusMax
	securityPenalty := float64(assessment.RiskScore) / 100 * weights.SecurityPenaltyMax

	blockedByPolicy := risk.IsBlockedTier(assessment.RiskTier, in.SecurityPolicy.InstallGate)
	blockedByQuarantine := in.Quarantined[candidate.ID]
	blocked := blockedByPolicy || blockedByQuarantine

	blockedPenalty := 0.0
	if blocked {
		blockedPenalty = weights.BlockedPenalty
	}

	rankScore := clamp(fitScore+trustScore+freshnessBonus-securityPenalty-blockedPenalty, 0, 100)

	fitReasons := []string{
		fmt.Sprintf("Project stack: %s", joinOrNone(in.ProjectSignals.Stack)),
		fmt.Sprintf("Compatibility overlap: %.1f", compatibilityScore),
		fmt.Sprintf("Capability coverage: %.1f", capabilityScore),
		fmt.Sprintf("Maintenance signal: %g", candidate.MaintenanceSignal),
		fmt.Sprintf("Provenance signal: %g", candidate.ProvenanceSignal),
		fmt.Sprintf("Adoption signal: %g", candidate.AdoptionSignal),
	}

	blockReason := ""
	if blockedByQuarantine {
		blockReason = "Quarantined by whitelist verification"
	} else if blockedByPolicy {
		blockReason = fmt.Sprintf("Blocked by security policy tier: %s", assessment.RiskTier)
	}

	return models.Recommendation{
		ID:         candidate.ID,
		Kind:       candidate.Kind,
		Provider:   candidate.Provider,
		RankScore:  rankScore,
		FitReasons: fitReasons,
		ScoreBreakdown: models.ScoreBreakdown{
			FitScore:        round1(fitScore),
			TrustScore:      round1(trustScore),
			SecurityPenalty: round1(securityPenalty),
			FreshnessBonus:  round1(freshnessBonus),
			BlockedPenalty:  round1(blockedPenalty),
		},
		RiskTier:      assessment.RiskTier,
		RiskScore:     assessment.RiskScore,
		Blocked:       blocked,
		BlockReason:   blockReason,
		InstallMethod: candidate.Install.Kind,
	}
}

// overlapScore is the symmetric overlap percentage between two tag sets,
// case-insensitive, zero when either set is empty.
func overlapScore(left, right []string) float64 {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	rightSet := make(map[string]bool, len(right))
	for _, v := range right {
		rightSet[strings.ToLower(v)] = true
	}

	matches := 0
	for _, v := range left {
		if rightSet[strings.ToLower(v)] {
			matches++
		}
	}

	denom := len(left)
	if len(right) > denom {
		denom = len(right)
	}
	return float64(matches) / float64(denom) * 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "unknown"
	}
	return strings.Join(values, ", ")
}
