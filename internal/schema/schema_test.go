package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/capguard/capguard/internal/models"
)

func validItem() models.CatalogItem {
	return models.CatalogItem{
		ID:            "mcp:filesystem",
		Kind:          models.KindMCP,
		Name:          "Filesystem",
		Description:   "Local filesystem access",
		Provider:      "anthropic",
		Capabilities:  []string{"files"},
		Compatibility: []string{"general"},
		Source:        "mcp-upstream",
		LastSeenAt:    "2026-08-30",
		Install: models.InstallDirective{
			Kind:   models.InstallKindSkillSh,
			Target: "@modelcontextprotocol/server-filesystem",
			Args:   []string{},
		},
	}
}

func TestValidateCatalogItems(t *testing.T) {
	if err := Validate(CatalogItems, []models.CatalogItem{validItem()}); err != nil {
		t.Fatalf("expected valid catalog item, got %v", err)
	}
}

func TestValidateRejectsBadDate(t *testing.T) {
	item := validItem()
	item.LastSeenAt = "yesterday"
	if err := Validate(CatalogItems, []models.CatalogItem{item}); err == nil {
		t.Fatal("expected date pattern violation")
	}
}

func TestValidateRejectsSkillShWithoutTarget(t *testing.T) {
	item := validItem()
	item.Install.Target = ""
	if err := Validate(CatalogItems, []models.CatalogItem{item}); err == nil {
		t.Fatal("expected install directive violation")
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	item := validItem()
	item.Kind = "widget"
	if err := Validate(CatalogItems, []models.CatalogItem{item}); err == nil {
		t.Fatal("expected kind enum violation")
	}
}

func TestValidateRejectsNegativeSignalCount(t *testing.T) {
	item := validItem()
	item.SecuritySignals.KnownVulnerabilities = -1
	if err := Validate(CatalogItems, []models.CatalogItem{item}); err == nil {
		t.Fatal("expected count minimum violation")
	}
}

func TestValidateUnknownSchemaName(t *testing.T) {
	err := Validate("no-such-document", map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "unknown schema") {
		t.Fatalf("expected unknown schema error, got %v", err)
	}
}

func TestValidateBytesMalformedJSON(t *testing.T) {
	if err := ValidateBytes(CatalogItems, []byte("{nope")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateQuarantineEntries(t *testing.T) {
	doc := models.QuarantineFile{
		Quarantined: []models.QuarantineEntry{
			{ID: "mcp:gone", Reason: "Catalog item missing", QuarantinedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)},
		},
	}
	if err := Validate(Quarantine, doc); err != nil {
		t.Fatalf("expected valid quarantine file, got %v", err)
	}

	doc.Quarantined[0].Reason = ""
	if err := Validate(Quarantine, doc); err == nil {
		t.Fatal("expected empty reason violation")
	}
}

func TestValidateSecurityReport(t *testing.T) {
	report := models.SecurityReport{
		GeneratedAt:     time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		StaleRegistries: []string{},
		Passed:          []string{"mcp:filesystem"},
		Failed: []models.ReportFailure{
			{ID: "mcp:gone", RiskTier: models.RiskTierCritical, RiskScore: 100, Reasons: []string{"Catalog item missing"}},
		},
	}
	if err := Validate(SecurityReport, report); err != nil {
		t.Fatalf("expected valid report, got %v", err)
	}

	report.Failed[0].Reasons = []string{}
	if err := Validate(SecurityReport, report); err == nil {
		t.Fatal("expected reasons minItems violation")
	}
}
