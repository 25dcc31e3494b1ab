// Package policy evaluates optional CEL gate rules against a catalog item
// and its risk assessment.
package policy

import (
	"fmt"

	"github.com/capguard/capguard/internal/models"
	"github.com/google/cel-go/cel"
)

// GateResult is the outcome of a single gate rule evaluation.
type GateResult struct {
	RuleName   string `json:"ruleName"`
	Passed     bool   `json:"passed"`
	FailureMsg string `json:"failureMsg,omitempty"`
}

// Engine is the CEL gate rule evaluation engine.
type Engine struct {
	env *cel.Env
}

func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{env: env}, nil
}

// EvaluateGate runs every configured rule against the item and its
// assessment. Compile, program, and evaluation errors surface as failed
// results rather than aborting the batch.
func (e *Engine) EvaluateGate(rules []models.GateRule, item models.CatalogItem, assessment models.RiskAssessment) []GateResult {
	results := make([]GateResult, 0, len(rules))

	input := gateInput(item, assessment)

	for _, rule := range rules {
		results = append(results, e.evaluateRule(rule, input))
	}

	return results
}

// FailedResults filters to the failing subset.
func FailedResults(results []GateResult) []GateResult {
	var failed []GateResult
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func (e *Engine) evaluateRule(rule models.GateRule, input map[string]interface{}) GateResult {
	ast, issues := e.env.Compile(rule.Expr)
	if issues != nil && issues.Err() != nil {
		return GateResult{
			RuleName:   rule.Name,
			Passed:     false,
			FailureMsg: fmt.Sprintf("CEL compile error: %v", issues.Err()),
		}
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return GateResult{
			RuleName:   rule.Name,
			Passed:     false,
			FailureMsg: fmt.Sprintf("CEL program error: %v", err),
		}
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"input": input,
	})
	if err != nil {
		return GateResult{
			RuleName:   rule.Name,
			Passed:     false,
			FailureMsg: fmt.Sprintf("CEL evaluation error: %v", err),
		}
	}

	passed, ok := out.Value().(bool)
	if !ok {
		return GateResult{
			RuleName:   rule.Name,
			Passed:     false,
			FailureMsg: fmt.Sprintf("Rule expression must return boolean, got %T", out.Value()),
		}
	}

	result := GateResult{
		RuleName: rule.Name,
		Passed:   passed,
	}
	if !passed {
		result.FailureMsg = rule.FailureMsg
	}

	return result
}

// gateInput converts the item and assessment into the CEL input map.
func gateInput(item models.CatalogItem, assessment models.RiskAssessment) map[string]interface{} {
	return map[string]interface{}{
		"id":            item.ID,
		"kind":          string(item.Kind),
		"name":          item.Name,
		"provider":      item.Provider,
		"source":        item.Source,
		"capabilities":  stringSliceToInterface(item.Capabilities),
		"compatibility": stringSliceToInterface(item.Compatibility),
		"install_kind":  string(item.Install.Kind),
		"signals": map[string]interface{}{
			"known_vulnerabilities": item.SecuritySignals.KnownVulnerabilities,
			"suspicious_patterns":   item.SecuritySignals.SuspiciousPatterns,
			"injection_findings":    item.SecuritySignals.InjectionFindings,
			"exfiltration_signals":  item.SecuritySignals.ExfiltrationSignals,
			"integrity_alerts":      item.SecuritySignals.IntegrityAlerts,
		},
		"risk_score": assessment.RiskScore,
		"risk_tier":  string(assessment.RiskTier),
	}
}

func stringSliceToInterface(values []string) []interface{} {
	result := make([]interface{}, len(values))
	for i, v := range values {
		result[i] = v
	}
	return result
}
