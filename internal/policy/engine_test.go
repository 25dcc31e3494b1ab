package policy

import (
	"strings"
	"testing"

	"github.com/capguard/capguard/internal/models"
)

func gateItem() models.CatalogItem {
	return models.CatalogItem{
		ID:            "mcp:filesystem",
		Kind:          models.KindMCP,
		Name:          "Filesystem",
		Provider:      "mcp",
		Capabilities:  []string{"files"},
		Compatibility: []string{"node"},
		Source:        "mcp-community",
		Install: models.InstallDirective{
			Kind:   models.InstallKindSkillSh,
			Target: "filesystem",
		},
		SecuritySignals: models.SecuritySignals{SuspiciousPatterns: 2},
	}
}

func gateAssessment() models.RiskAssessment {
	return models.RiskAssessment{
		ID:        "mcp:filesystem",
		RiskScore: 20,
		RiskTier:  models.RiskTierLow,
	}
}

func TestEvaluateGate(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	rules := []models.GateRule{
		{
			Name:       "score_bounded",
			Expr:       `input.risk_score < 50`,
			FailureMsg: "Risk score too high",
		},
		{
			Name:       "no_suspicious_patterns",
			Expr:       `input.signals.suspicious_patterns == 0`,
			FailureMsg: "Suspicious patterns present",
		},
		{
			Name:       "trusted_provider",
			Expr:       `input.provider in ["mcp", "anthropic", "github", "openai"]`,
			FailureMsg: "Unknown provider",
		},
	}

	results := engine.EvaluateGate(rules, gateItem(), gateAssessment())
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if !results[0].Passed {
		t.Errorf("score_bounded should pass: %s", results[0].FailureMsg)
	}
	if results[1].Passed {
		t.Error("no_suspicious_patterns should fail")
	}
	if results[1].FailureMsg != "Suspicious patterns present" {
		t.Errorf("expected configured failure message, got %q", results[1].FailureMsg)
	}
	if !results[2].Passed {
		t.Errorf("trusted_provider should pass: %s", results[2].FailureMsg)
	}
}

func TestEvaluateGateCompileErrorFailsRule(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	rules := []models.GateRule{
		{Name: "broken", Expr: `input.risk_score <<< 1`, FailureMsg: "unused"},
	}

	results := engine.EvaluateGate(rules, gateItem(), gateAssessment())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Passed {
		t.Error("a rule that fails to compile must not pass")
	}
	if !strings.Contains(results[0].FailureMsg, "compile") {
		t.Errorf("expected compile error message, got %q", results[0].FailureMsg)
	}
}

func TestEvaluateGateNonBooleanFailsRule(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	rules := []models.GateRule{
		{Name: "non_bool", Expr: `input.risk_score + 1`},
	}

	results := engine.EvaluateGate(rules, gateItem(), gateAssessment())
	if results[0].Passed {
		t.Error("a non-boolean expression must not pass")
	}
}

func TestFailedResults(t *testing.T) {
	results := []GateResult{
		{RuleName: "a", Passed: true},
		{RuleName: "b", Passed: false, FailureMsg: "nope"},
		{RuleName: "c", Passed: false},
	}

	failed := FailedResults(results)
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed results, got %d", len(failed))
	}
	if failed[0].RuleName != "b" || failed[1].RuleName != "c" {
		t.Errorf("unexpected failed set: %+v", failed)
	}
}
