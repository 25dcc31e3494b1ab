package ranking

import (
	"strings"
	"testing"
	"time"

	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/project"
)

func candidate(id string) models.CatalogItem {
	return models.CatalogItem{
		ID:            id,
		Kind:          models.KindMCP,
		Name:          "Candidate",
		Description:   "A candidate item",
		Provider:      "mcp",
		Capabilities:  []string{"files", "search"},
		Compatibility: []string{"node"},
		Source:        "mcp-community",
		LastSeenAt:    "2026-08-30",
		Install: models.InstallDirective{
			Kind:   models.InstallKindSkillSh,
			Target: "candidate",
		},
		AdoptionSignal:    50,
		MaintenanceSignal: 60,
		ProvenanceSignal:  70,
		FreshnessSignal:   55,
	}
}

func baseInputs() Inputs {
	return Inputs{
		ProjectSignals: project.Signals{
			Stack:             []string{"node"},
			CompatibilityTags: []string{"node"},
		},
		Requirements:   models.DefaultRequirementsProfile(),
		RankingPolicy:  models.DefaultRankingPolicy(),
		SecurityPolicy: models.DefaultSecurityPolicy(),
		Quarantined:    map[string]bool{},
		Now:            time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
}

func TestRankScoreClamped(t *testing.T) {
	in := baseInputs()
	in.RankingPolicy.Weights.Maintenance = 10000

	hot := candidate("mcp:hot")
	hot.MaintenanceSignal = 100

	cold := candidate("mcp:cold")
	cold.SecuritySignals = models.SecuritySignals{KnownVulnerabilities: 99}
	in.RankingPolicy.Weights.SecurityPenaltyMax = 10000

	recs := Rank([]models.CatalogItem{hot, cold}, in)
	for _, rec := range recs {
		if rec.RankScore < 0 || rec.RankScore > 100 {
			t.Errorf("%s: rankScore %g outside [0,100]", rec.ID, rec.RankScore)
		}
	}
}

func TestRankQuarantinedIsBlocked(t *testing.T) {
	in := baseInputs()
	in.Quarantined["mcp:bad"] = true

	recs := Rank([]models.CatalogItem{candidate("mcp:bad"), candidate("mcp:good")}, in)

	var bad, good *models.Recommendation
	for i := range recs {
		switch recs[i].ID {
		case "mcp:bad":
			bad = &recs[i]
		case "mcp:good":
			good = &recs[i]
		}
	}

	if bad == nil || !bad.Blocked {
		t.Fatal("quarantined candidate must be blocked")
	}
	if bad.BlockReason != "Quarantined by whitelist verification" {
		t.Errorf("unexpected block reason %q", bad.BlockReason)
	}
	if good.Blocked {
		t.Error("clean candidate must not be blocked")
	}
	if bad.RankScore >= good.RankScore {
		t.Errorf("blocked penalty should lower the score: %g >= %g", bad.RankScore, good.RankScore)
	}
}

func TestRankBlockedTierReason(t *testing.T) {
	in := baseInputs()

	risky := candidate("mcp:risky")
	risky.SecuritySignals = models.SecuritySignals{KnownVulnerabilities: 4}

	recs := Rank([]models.CatalogItem{risky}, in)
	if !recs[0].Blocked {
		t.Fatal("critical-tier candidate must be blocked")
	}
	if !strings.HasPrefix(recs[0].BlockReason, "Blocked by security policy tier:") {
		t.Errorf("unexpected block reason %q", recs[0].BlockReason)
	}
}

func TestRankTieBreaks(t *testing.T) {
	in := baseInputs()
	// identical candidates differ only in id; the final tie-break is
	// lexical
	recs := Rank([]models.CatalogItem{candidate("mcp:zeta"), candidate("mcp:alpha")}, in)
	if recs[0].ID != "mcp:alpha" {
		t.Errorf("expected lexical tie-break, got %s first", recs[0].ID)
	}

	// higher trust wins when rank scores are forced equal at the clamp
	// ceiling
	in2 := baseInputs()
	in2.RankingPolicy.Weights.Maintenance = 10000
	in2.RankingPolicy.Weights.Provenance = 10000

	strong := candidate("mcp:strong")
	strong.ProvenanceSignal = 100
	weak := candidate("mcp:weak")
	weak.ProvenanceSignal = 1

	recs2 := Rank([]models.CatalogItem{weak, strong}, in2)
	if recs2[0].ID != "mcp:strong" {
		t.Errorf("expected trust tie-break to prefer mcp:strong, got %s", recs2[0].ID)
	}
}

func TestRankKindFilter(t *testing.T) {
	in := baseInputs()
	in.Kinds = []models.Kind{models.KindSkill}

	skill := candidate("skill:helper")
	skill.Kind = models.KindSkill

	recs := Rank([]models.CatalogItem{candidate("mcp:filesystem"), skill}, in)
	if len(recs) != 1 || recs[0].ID != "skill:helper" {
		t.Errorf("expected only the skill, got %+v", recs)
	}
}

func TestOverlapScore(t *testing.T) {
	tests := []struct {
		name  string
		left  []string
		right []string
		want  float64
	}{
		{"both empty", nil, nil, 0},
		{"left empty", nil, []string{"node"}, 0},
		{"exact", []string{"node"}, []string{"node"}, 100},
		{"case insensitive", []string{"Node"}, []string{"node"}, 100},
		{"partial", []string{"node", "python"}, []string{"node"}, 50},
		{"asymmetric denominator", []string{"node"}, []string{"node", "go", "rust", "java"}, 25},
	}

	for _, tt := range tests {
		if got := overlapScore(tt.left, tt.right); got != tt.want {
			t.Errorf("%s: overlapScore = %g, want %g", tt.name, got, tt.want)
		}
	}
}

func TestRankBreakdownExposed(t *testing.T) {
	recs := Rank([]models.CatalogItem{candidate("mcp:filesystem")}, baseInputs())
	rec := recs[0]

	if rec.ScoreBreakdown.TrustScore == 0 {
		t.Error("expected non-zero trust sub-score in breakdown")
	}
	if rec.ScoreBreakdown.FreshnessBonus == 0 {
		t.Error("expected non-zero freshness bonus in breakdown")
	}
	if len(rec.FitReasons) == 0 {
		t.Error("expected fit reasons to be populated")
	}
	if rec.InstallMethod != models.InstallKindSkillSh {
		t.Errorf("expected install method surfaced, got %s", rec.InstallMethod)
	}
}
