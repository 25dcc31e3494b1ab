package models

import "time"

// ScannerFindings is one scanner category's finding count.
type ScannerFindings struct {
	Findings int `json:"findings"`
}

// ScannerResults breaks the assessment down by scanner category.
type ScannerResults struct {
	PackageIntegrity       ScannerFindings `json:"packageIntegrity"`
	VulnerabilityIntel     ScannerFindings `json:"vulnerabilityIntel"`
	PermissionPatterns     ScannerFindings `json:"permissionPatterns"`
	InjectionTests         ScannerFindings `json:"injectionTests"`
	ExfiltrationHeuristics ScannerFindings `json:"exfiltrationHeuristics"`
}

// RiskAssessment is derived state: always recomputed from an item's
// security signals and the current policy, never persisted as
// authoritative.
type RiskAssessment struct {
	ID             string         `json:"id"`
	RiskScore      int            `json:"riskScore"`
	RiskTier       RiskTier       `json:"riskTier"`
	Reasons        []string       `json:"reasons"`
	ScannerResults ScannerResults `json:"scannerResults"`
	AssessedAt     time.Time      `json:"assessedAt"`
}

// ScoreBreakdown exposes every ranking sub-score so a recommendation is
// never an opaque number.
type ScoreBreakdown struct {
	FitScore        float64 `json:"fitScore"`
	TrustScore      float64 `json:"trustScore"`
	SecurityPenalty float64 `json:"securityPenalty"`
	FreshnessBonus  float64 `json:"freshnessBonus"`
	BlockedPenalty  float64 `json:"blockedPenalty"`
}

// Recommendation is computed per ranking call and not persisted.
type Recommendation struct {
	ID             string         `json:"id"`
	Kind           Kind           `json:"kind"`
	Provider       string         `json:"provider"`
	RankScore      float64        `json:"rankScore"`
	FitReasons     []string       `json:"fitReasons"`
	ScoreBreakdown ScoreBreakdown `json:"scoreBreakdown"`
	RiskTier       RiskTier       `json:"riskTier"`
	RiskScore      int            `json:"riskScore"`
	Blocked        bool           `json:"blocked"`
	BlockReason    string         `json:"blockReason,omitempty"`
	InstallMethod  InstallKind    `json:"installMethod"`
}

// ReportFailure records one whitelisted id that failed verification.
type ReportFailure struct {
	ID        string   `json:"id"`
	RiskTier  RiskTier `json:"riskTier"`
	RiskScore int      `json:"riskScore"`
	Reasons   []string `json:"reasons"`
}

// SecurityReport is the output of whitelist verification.
type SecurityReport struct {
	GeneratedAt     time.Time       `json:"generatedAt"`
	StaleRegistries []string        `json:"staleRegistries"`
	Passed          []string        `json:"passed"`
	Failed          []ReportFailure `json:"failed"`
}

// QuarantineEntry is the durable record of an id removed from trust.
type QuarantineEntry struct {
	ID            string    `json:"id"`
	Reason        string    `json:"reason"`
	QuarantinedAt time.Time `json:"quarantinedAt"`
}

// WhitelistFile is the on-disk approved id set.
type WhitelistFile struct {
	Approved []string `json:"approved"`
}

// QuarantineFile is the on-disk quarantine store.
type QuarantineFile struct {
	Quarantined []QuarantineEntry `json:"quarantined"`
}

// Policy decisions recorded in install audits.
const (
	DecisionAllowed         = "allowed"
	DecisionBlocked         = "blocked"
	DecisionOverrideAllowed = "override-allowed"
)

// InstallAudit is one immutable record per install attempt.
type InstallAudit struct {
	ID             string      `json:"id"`
	RequestedAt    time.Time   `json:"requestedAt"`
	PolicyDecision string      `json:"policyDecision"`
	OverrideUsed   bool        `json:"overrideUsed"`
	Installer      InstallKind `json:"installer"`
	ExitCode       int         `json:"exitCode"`
}
