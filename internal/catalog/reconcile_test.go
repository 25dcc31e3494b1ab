package catalog

import (
	"reflect"
	"testing"

	"github.com/capguard/capguard/internal/models"
)

func sampleItem(id string) models.CatalogItem {
	return models.CatalogItem{
		ID:            id,
		Kind:          models.KindMCP,
		Name:          "Filesystem",
		Description:   "File access server",
		Provider:      "mcp",
		Capabilities:  []string{"files"},
		Compatibility: []string{"node"},
		Source:        "mcp-community",
		LastSeenAt:    "2026-08-01",
		Install: models.InstallDirective{
			Kind:   models.InstallKindSkillSh,
			Target: "filesystem",
		},
		AdoptionSignal:    50,
		MaintenanceSignal: 60,
		ProvenanceSignal:  70,
		FreshnessSignal:   55,
	}
}

func TestMergeIdempotent(t *testing.T) {
	item := sampleItem("mcp:filesystem")
	merged := Merge([]models.CatalogItem{item, item})

	if len(merged) != 1 {
		t.Fatalf("expected 1 item, got %d", len(merged))
	}
	if !reflect.DeepEqual(merged[0], item) {
		t.Errorf("merging an item with itself changed it: %+v", merged[0])
	}
}

func TestMergeLongerWinsAndSignalsMax(t *testing.T) {
	a := sampleItem("mcp:filesystem")
	b := sampleItem("mcp:filesystem")
	b.Name = "Filesystem MCP Server"
	b.Description = "Short"
	b.Capabilities = []string{"Search", "files"}
	b.MaintenanceSignal = 90
	b.AdoptionSignal = 10
	b.LastSeenAt = "2026-08-15"
	b.Metadata = map[string]any{"transport": "stdio"}

	merged := Merge([]models.CatalogItem{a, b})
	if len(merged) != 1 {
		t.Fatalf("expected 1 item, got %d", len(merged))
	}
	got := merged[0]

	if got.Name != "Filesystem MCP Server" {
		t.Errorf("expected longer name to win, got %q", got.Name)
	}
	if got.Description != "File access server" {
		t.Errorf("expected longer description to win, got %q", got.Description)
	}
	if want := []string{"files", "search"}; !reflect.DeepEqual(got.Capabilities, want) {
		t.Errorf("expected capabilities %v, got %v", want, got.Capabilities)
	}
	if got.MaintenanceSignal != 90 {
		t.Errorf("expected max maintenance 90, got %g", got.MaintenanceSignal)
	}
	if got.AdoptionSignal != 50 {
		t.Errorf("expected max adoption 50, got %g", got.AdoptionSignal)
	}
	if got.LastSeenAt != "2026-08-15" {
		t.Errorf("expected later lastSeenAt, got %q", got.LastSeenAt)
	}
	if got.Metadata["transport"] != "stdio" {
		t.Errorf("expected metadata merged, got %v", got.Metadata)
	}
}

func TestMergeUnionAssociative(t *testing.T) {
	a := sampleItem("mcp:filesystem")
	a.Capabilities = []string{"files"}
	b := sampleItem("mcp:filesystem")
	b.Capabilities = []string{"search"}
	c := sampleItem("mcp:filesystem")
	c.Capabilities = []string{"watch"}

	forward := Merge([]models.CatalogItem{a, b, c})[0].Capabilities
	reverse := Merge([]models.CatalogItem{c, b, a})[0].Capabilities

	if !reflect.DeepEqual(forward, reverse) {
		t.Errorf("union depends on input order: %v vs %v", forward, reverse)
	}
}

func TestMergeSortsByID(t *testing.T) {
	merged := Merge([]models.CatalogItem{
		sampleItem("mcp:zeta"),
		sampleItem("mcp:alpha"),
	})

	if merged[0].ID != "mcp:alpha" || merged[1].ID != "mcp:zeta" {
		t.Errorf("expected lexical order, got %s, %s", merged[0].ID, merged[1].ID)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	reg := models.Registry{
		ID:         "mcp-community",
		Kind:       models.KindMCP,
		SourceType: models.SourceTypeCommunityList,
		Adapter:    "direct",
		Enabled:    true,
	}

	entries := []map[string]any{
		{
			"id":          "filesystem",
			"name":        "Filesystem",
			"description": "File access",
			"install": map[string]any{
				"kind":   "skill.sh",
				"target": "filesystem",
			},
		},
	}

	items, err := Normalize(entries, reg, "2026-08-31")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]

	if item.ID != "mcp:filesystem" {
		t.Errorf("expected kind-namespaced id, got %q", item.ID)
	}
	if item.Provider != "mcp" {
		t.Errorf("expected inferred provider mcp, got %q", item.Provider)
	}
	if item.Source != "mcp-community" {
		t.Errorf("expected source defaulted to registry id, got %q", item.Source)
	}
	if item.LastSeenAt != "2026-08-31" {
		t.Errorf("expected lastSeenAt defaulted, got %q", item.LastSeenAt)
	}
	if item.AdoptionSignal != 50 || item.FreshnessSignal != 50 {
		t.Errorf("expected defaulted signals, got %g/%g", item.AdoptionSignal, item.FreshnessSignal)
	}
}

func TestNormalizeRejectsInvalidInstall(t *testing.T) {
	reg := models.Registry{ID: "r", Kind: models.KindMCP, Adapter: "direct", Enabled: true}

	entries := []map[string]any{
		{
			"id":          "broken",
			"name":        "Broken",
			"description": "No target",
			"install":     map[string]any{"kind": "skill.sh"},
		},
	}

	if _, err := Normalize(entries, reg, "2026-08-31"); err == nil {
		t.Fatal("expected validation error for skill.sh install without target")
	}
}

func TestNormalizeReplacesForeignKindPrefix(t *testing.T) {
	if got := normalizeID("skill:indexer", models.KindMCP); got != "mcp:indexer" {
		t.Errorf("expected foreign prefix replaced, got %q", got)
	}
	if got := normalizeID("mcp:indexer", models.KindMCP); got != "mcp:indexer" {
		t.Errorf("expected id unchanged, got %q", got)
	}
	if got := normalizeID("custom:indexer", models.KindMCP); got != "mcp:custom:indexer" {
		t.Errorf("expected unknown prefix kept inside namespaced id, got %q", got)
	}
}
