package security

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/policy"
)

func gateFixture(t *testing.T) (*Gate, *catalog.Store) {
	t.Helper()
	store := catalog.NewStore(t.TempDir())

	clean := models.CatalogItem{
		ID:            "mcp:clean",
		Kind:          models.KindMCP,
		Name:          "Clean",
		Description:   "No findings",
		Provider:      "mcp",
		Capabilities:  []string{"files"},
		Compatibility: []string{"node"},
		Source:        "mcp-community",
		LastSeenAt:    "2026-08-30",
		Install:       models.InstallDirective{Kind: models.InstallKindSkillSh, Target: "clean"},
	}
	risky := clean
	risky.ID = "mcp:risky"
	risky.Name = "Risky"
	risky.SecuritySignals = models.SecuritySignals{KnownVulnerabilities: 4}

	if err := store.SaveItems([]models.CatalogItem{clean, risky}); err != nil {
		t.Fatalf("seeding catalog failed: %v", err)
	}
	if err := store.SaveWhitelist([]string{"mcp:clean", "mcp:risky", "mcp:gone"}); err != nil {
		t.Fatalf("seeding whitelist failed: %v", err)
	}

	engine, err := policy.NewEngine()
	if err != nil {
		t.Fatalf("creating policy engine failed: %v", err)
	}

	return &Gate{
		Store:  store,
		Policy: models.DefaultSecurityPolicy(),
		Engine: engine,
		Now:    func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) },
	}, store
}

func TestVerifyPartitionsWhitelist(t *testing.T) {
	gate, _ := gateFixture(t)

	result, err := gate.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if want := []string{"mcp:clean"}; !reflect.DeepEqual(result.Report.Passed, want) {
		t.Errorf("expected passed %v, got %v", want, result.Report.Passed)
	}
	if len(result.Report.Failed) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(result.Report.Failed))
	}

	byID := map[string]models.ReportFailure{}
	for _, f := range result.Report.Failed {
		byID[f.ID] = f
	}

	gone := byID["mcp:gone"]
	if gone.RiskTier != models.RiskTierCritical || gone.RiskScore != 100 {
		t.Errorf("missing item should fail at critical/100, got %s/%d", gone.RiskTier, gone.RiskScore)
	}
	if len(gone.Reasons) != 1 || gone.Reasons[0] != "Catalog item missing" {
		t.Errorf("unexpected reasons for missing item: %v", gone.Reasons)
	}

	risky := byID["mcp:risky"]
	if risky.RiskTier != models.RiskTierHigh {
		t.Errorf("expected risky item at high tier, got %s", risky.RiskTier)
	}
}

func TestVerifyGateRuleFailure(t *testing.T) {
	gate, _ := gateFixture(t)
	gate.Policy.GateRules = []models.GateRule{
		{
			Name:       "no_file_access",
			Expr:       `!("files" in input.capabilities)`,
			FailureMsg: "File access capability is not allowed",
		},
	}

	result, err := gate.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	// the clean item now fails its gate rule too
	if len(result.Report.Passed) != 0 {
		t.Errorf("expected no passes under the file-access rule, got %v", result.Report.Passed)
	}
}

func TestApplyQuarantineIdempotent(t *testing.T) {
	gate, store := gateFixture(t)

	verifyResult, err := gate.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	first, err := gate.ApplyQuarantine(context.Background(), verifyResult.ReportPath)
	if err != nil {
		t.Fatalf("first ApplyQuarantine failed: %v", err)
	}
	if want := []string{"mcp:gone", "mcp:risky"}; !reflect.DeepEqual(first.RemovedFromWhitelist, want) {
		t.Errorf("expected removals %v, got %v", want, first.RemovedFromWhitelist)
	}

	whitelist, err := store.LoadWhitelist()
	if err != nil {
		t.Fatalf("LoadWhitelist failed: %v", err)
	}
	if want := []string{"mcp:clean"}; !reflect.DeepEqual(whitelist, want) {
		t.Errorf("expected whitelist %v, got %v", want, whitelist)
	}

	second, err := gate.ApplyQuarantine(context.Background(), verifyResult.ReportPath)
	if err != nil {
		t.Fatalf("second ApplyQuarantine failed: %v", err)
	}
	if len(second.RemovedFromWhitelist) != 0 {
		t.Errorf("re-applying must not remove anything, got %v", second.RemovedFromWhitelist)
	}

	quarantine, err := store.LoadQuarantine()
	if err != nil {
		t.Fatalf("LoadQuarantine failed: %v", err)
	}
	if len(quarantine) != 2 {
		t.Errorf("expected 2 quarantine entries after re-apply, got %d", len(quarantine))
	}
	for _, entry := range quarantine {
		if entry.Reason == "" {
			t.Errorf("entry %s has no reason", entry.ID)
		}
	}
}
