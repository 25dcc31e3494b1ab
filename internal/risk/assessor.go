// Package risk turns raw security signal counters into a weighted score
// and an ordinal tier per the configured security policy.
package risk

import (
	"fmt"
	"time"

	"github.com/capguard/capguard/internal/models"
)

// Assess computes an item's risk assessment from its security signals and
// the policy's scoring weights. The score is the weighted sum of the
// counters, capped at 100; the tier follows from the policy thresholds.
func Assess(item models.CatalogItem, policy models.SecurityPolicy, now time.Time) models.RiskAssessment {
	sig := item.SecuritySignals
	w := policy.Scoring

	score := sig.KnownVulnerabilities*w.VulnerabilityWeight +
		sig.SuspiciousPatterns*w.SuspiciousWeight +
		sig.InjectionFindings*w.InjectionWeight +
		sig.ExfiltrationSignals*w.ExfiltrationWeight +
		sig.IntegrityAlerts*w.IntegrityWeight
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	// Reasons carry every counter, zero or not, so the output shape is
	// uniform across assessments.
	reasons := []string{
		fmt.Sprintf("Integrity alerts: %d", sig.IntegrityAlerts),
		fmt.Sprintf("Known vulnerabilities: %d", sig.KnownVulnerabilities),
		fmt.Sprintf("Suspicious patterns: %d", sig.SuspiciousPatterns),
		fmt.Sprintf("Injection findings: %d", sig.InjectionFindings),
		fmt.Sprintf("Exfiltration signals: %d", sig.ExfiltrationSignals),
	}

	return models.RiskAssessment{
		ID:        item.ID,
		RiskScore: score,
		RiskTier:  MapTier(score, policy.Thresholds),
		Reasons:   reasons,
		ScannerResults: models.ScannerResults{
			PackageIntegrity:       models.ScannerFindings{Findings: sig.IntegrityAlerts},
			VulnerabilityIntel:     models.ScannerFindings{Findings: sig.KnownVulnerabilities},
			PermissionPatterns:     models.ScannerFindings{Findings: sig.SuspiciousPatterns},
			InjectionTests:         models.ScannerFindings{Findings: sig.InjectionFindings},
			ExfiltrationHeuristics: models.ScannerFindings{Findings: sig.ExfiltrationSignals},
		},
		AssessedAt: now.UTC(),
	}
}

// MapTier maps a score to its tier using inclusive band maxima. Anything
// above HighMax is critical regardless of CriticalMax.
func MapTier(score int, t models.Thresholds) models.RiskTier {
	switch {
	case score <= t.LowMax:
		return models.RiskTierLow
	case score <= t.MediumMax:
		return models.RiskTierMedium
	case score <= t.HighMax:
		return models.RiskTierHigh
	default:
		return models.RiskTierCritical
	}
}

// IsBlockedTier reports whether the gate blocks installs at this tier.
func IsBlockedTier(tier models.RiskTier, gate models.InstallGate) bool {
	return containsTier(gate.BlockTiers, tier)
}

// IsWarnTier reports whether the gate warns at this tier.
func IsWarnTier(tier models.RiskTier, gate models.InstallGate) bool {
	return containsTier(gate.WarnTiers, tier)
}

func containsTier(tiers []models.RiskTier, tier models.RiskTier) bool {
	for _, t := range tiers {
		if t == tier {
			return true
		}
	}
	return false
}
