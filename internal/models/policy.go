package models

// RiskTier is the ordinal classification of a risk score.
type RiskTier string

const (
	RiskTierLow      RiskTier = "low"
	RiskTierMedium   RiskTier = "medium"
	RiskTierHigh     RiskTier = "high"
	RiskTierCritical RiskTier = "critical"
)

// Thresholds partitions [0,100] into four contiguous bands via ascending
// inclusive maxima. Scores above HighMax are critical.
type Thresholds struct {
	LowMax      int `json:"lowMax"`
	MediumMax   int `json:"mediumMax"`
	HighMax     int `json:"highMax"`
	CriticalMax int `json:"criticalMax"`
}

// ScoringWeights are the per-counter weights for the risk score.
type ScoringWeights struct {
	VulnerabilityWeight int `json:"vulnerabilityWeight"`
	SuspiciousWeight    int `json:"suspiciousWeight"`
	InjectionWeight     int `json:"injectionWeight"`
	ExfiltrationWeight  int `json:"exfiltrationWeight"`
	IntegrityWeight     int `json:"integrityWeight"`
}

// InstallGate configures which tiers block or warn. These are policy data,
// not hardcoded tiers, so posture can tighten without a code change.
type InstallGate struct {
	BlockTiers []RiskTier `json:"blockTiers"`
	WarnTiers  []RiskTier `json:"warnTiers"`
}

// GateRule is an optional CEL expression evaluated against an item and its
// assessment; a failing rule blocks installation like a blocked tier.
type GateRule struct {
	Name       string `json:"name" yaml:"name"`
	Expr       string `json:"expr" yaml:"expr"`
	FailureMsg string `json:"failureMsg" yaml:"failure_msg"`
}

// SecurityPolicy drives risk assessment and the install gate.
type SecurityPolicy struct {
	Thresholds  Thresholds     `json:"thresholds"`
	InstallGate InstallGate    `json:"installGate"`
	Scoring     ScoringWeights `json:"scoring"`
	GateRules   []GateRule     `json:"gateRules,omitempty"`
}

// DefaultSecurityPolicy returns the stock policy.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		Thresholds: Thresholds{LowMax: 24, MediumMax: 49, HighMax: 74, CriticalMax: 100},
		InstallGate: InstallGate{
			BlockTiers: []RiskTier{RiskTierHigh, RiskTierCritical},
			WarnTiers:  []RiskTier{RiskTierMedium},
		},
		Scoring: ScoringWeights{
			VulnerabilityWeight: 15,
			SuspiciousWeight:    10,
			InjectionWeight:     12,
			ExfiltrationWeight:  12,
			IntegrityWeight:     10,
		},
	}
}

// RankingWeights are fractions of 100 for the fit/trust components plus
// absolute maxima for the bonus and penalty terms.
type RankingWeights struct {
	Compatibility      float64 `json:"compatibility"`
	CapabilityCoverage float64 `json:"capabilityCoverage"`
	Maintenance        float64 `json:"maintenance"`
	Provenance         float64 `json:"provenance"`
	Adoption           float64 `json:"adoption"`
	FreshnessBonusMax  float64 `json:"freshnessBonusMax"`
	SecurityPenaltyMax float64 `json:"securityPenaltyMax"`
	BlockedPenalty     float64 `json:"blockedPenalty"`
}

// RankingPolicy configures the recommendation engine.
type RankingPolicy struct {
	Weights          RankingWeights `json:"weights"`
	TieBreakers      []string       `json:"tieBreakers,omitempty"`
	BlockedFloorTier RiskTier       `json:"blockedFloorTier,omitempty"`
}

// DefaultRankingPolicy returns the stock ranking policy.
func DefaultRankingPolicy() RankingPolicy {
	return RankingPolicy{
		Weights: RankingWeights{
			Compatibility:      40,
			CapabilityCoverage: 25,
			Maintenance:        15,
			Provenance:         18,
			Adoption:           10,
			FreshnessBonusMax:  8,
			SecurityPenaltyMax: 30,
			BlockedPenalty:     40,
		},
		TieBreakers:      []string{"trust", "risk", "name"},
		BlockedFloorTier: RiskTierHigh,
	}
}

// ProviderPolicy gates registry resolution per originating ecosystem. A
// community-sourced registry is skipped entirely when its provider mandates
// official-only sourcing and the registry isn't marked official.
type ProviderPolicy struct {
	ID           string `json:"id"`
	Enabled      bool   `json:"enabled"`
	OfficialOnly bool   `json:"officialOnly"`
}

// ProvidersFile is the on-disk provider policy list.
type ProvidersFile struct {
	Providers []ProviderPolicy `json:"providers"`
}

// RequirementsProfile states the consuming project's explicit needs.
type RequirementsProfile struct {
	UseCase              string   `json:"useCase" yaml:"useCase"`
	Stack                []string `json:"stack" yaml:"stack"`
	Deployment           string   `json:"deployment" yaml:"deployment"`
	SecurityPosture      string   `json:"securityPosture" yaml:"securityPosture"`
	RequiredCapabilities []string `json:"requiredCapabilities" yaml:"requiredCapabilities"`
}

// DefaultRequirementsProfile returns the profile used when none is given.
func DefaultRequirementsProfile() RequirementsProfile {
	return RequirementsProfile{
		UseCase:         "general",
		Deployment:      "local",
		SecurityPosture: "balanced",
	}
}
