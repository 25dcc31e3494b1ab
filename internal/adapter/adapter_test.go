package adapter

import (
	"reflect"
	"testing"

	"github.com/capguard/capguard/internal/models"
)

func TestAdaptMCPRegistryEntry(t *testing.T) {
	reg := models.Registry{
		ID:      "mcp-upstream",
		Kind:    models.KindMCP,
		Adapter: MCPRegistryV01,
		Enabled: true,
	}

	entries := []any{
		map[string]any{
			"name":        "filesystem",
			"title":       "Filesystem Server",
			"description": "Read and write files",
			"packages": []any{
				map[string]any{
					"registryType": "npm",
					"identifier":   "@modelcontextprotocol/server-filesystem",
					"transport":    map[string]any{"type": "stdio"},
				},
			},
			"tags": []any{"Files", "files"},
			"auth": "Bearer",
		},
		"not-an-object",
		map[string]any{"description": "no name, dropped"},
	}

	res := Adapt(reg, entries)
	if res.Dropped != 2 {
		t.Errorf("expected 2 dropped entries, got %d", res.Dropped)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 mapped entry, got %d", len(res.Entries))
	}
	got := res.Entries[0]

	if got["id"] != "mcp:filesystem" {
		t.Errorf("expected id mcp:filesystem, got %v", got["id"])
	}
	if got["name"] != "Filesystem Server" {
		t.Errorf("expected title used as name, got %v", got["name"])
	}
	if got["source"] != "mcp-upstream" {
		t.Errorf("expected source from registry, got %v", got["source"])
	}
	if want := []string{"general", "node"}; !reflect.DeepEqual(got["compatibility"], want) {
		t.Errorf("expected compatibility %v, got %v", want, got["compatibility"])
	}
	if want := []string{"files"}; !reflect.DeepEqual(got["capabilities"], want) {
		t.Errorf("expected deduplicated capabilities %v, got %v", want, got["capabilities"])
	}

	install, ok := got["install"].(map[string]any)
	if !ok {
		t.Fatal("expected install object")
	}
	if install["kind"] != "skill.sh" {
		t.Errorf("expected skill.sh install, got %v", install["kind"])
	}
	if install["target"] != "@modelcontextprotocol/server-filesystem" {
		t.Errorf("expected package identifier as target, got %v", install["target"])
	}

	meta, ok := got["metadata"].(map[string]any)
	if !ok || meta["transport"] != "stdio" {
		t.Errorf("expected transport metadata, got %v", got["metadata"])
	}
	if meta["authModel"] != "api_key" {
		t.Errorf("expected bearer auth normalized to api_key, got %v", meta["authModel"])
	}
}

func TestAdaptMCPRegistryDefaults(t *testing.T) {
	reg := models.Registry{ID: "mcp-upstream", Kind: models.KindMCP, Adapter: MCPRegistryV01}

	res := Adapt(reg, []any{map[string]any{"name": "filesystem"}})
	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(res.Entries))
	}
	got := res.Entries[0]

	if got["adoptionSignal"] != float64(50) || got["maintenanceSignal"] != float64(50) {
		t.Errorf("expected adoption/maintenance defaults 50/50, got %v/%v",
			got["adoptionSignal"], got["maintenanceSignal"])
	}
	if got["provenanceSignal"] != float64(90) {
		t.Errorf("expected provenance default 90, got %v", got["provenanceSignal"])
	}
	if got["freshnessSignal"] != float64(60) {
		t.Errorf("expected freshness default 60, got %v", got["freshnessSignal"])
	}

	meta, ok := got["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("expected metadata object, got %v", got["metadata"])
	}
	if meta["transport"] != "stdio" {
		t.Errorf("expected missing transport defaulted to stdio, got %v", meta["transport"])
	}
	if meta["authModel"] != "custom" {
		t.Errorf("expected missing auth defaulted to custom, got %v", meta["authModel"])
	}
}

func TestNormalizeAuthModel(t *testing.T) {
	cases := map[string]string{
		"noauth": "none",
		"APIKey": "api_key",
		"oauth2": "oauth",
		"mtls":   "custom",
		"":       "custom",
	}
	for in, want := range cases {
		if got := normalizeAuthModel(in); got != want {
			t.Errorf("normalizeAuthModel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAdaptOpenAISkillDefaults(t *testing.T) {
	reg := models.Registry{ID: "skills-upstream", Kind: models.KindSkill, Adapter: OpenAISkillsV1}

	res := Adapt(reg, []any{map[string]any{"slug": "summarizer"}})
	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(res.Entries))
	}
	got := res.Entries[0]

	if got["id"] != "skill:summarizer" {
		t.Errorf("expected id skill:summarizer, got %v", got["id"])
	}
	if want := []string{"general"}; !reflect.DeepEqual(got["compatibility"], want) {
		t.Errorf("expected general compatibility default, got %v", got["compatibility"])
	}
	if got["provenanceSignal"] != float64(75) {
		t.Errorf("expected provenance default 75, got %v", got["provenanceSignal"])
	}
	install := got["install"].(map[string]any)
	if install["target"] != "summarizer" {
		t.Errorf("expected slug as install target, got %v", install["target"])
	}
}

func TestAdaptClaudePluginManualInstall(t *testing.T) {
	reg := models.Registry{ID: "claude-upstream", Kind: models.KindClaudePlugin, Adapter: ClaudePluginsV01}

	res := Adapt(reg, []any{map[string]any{
		"slug": "code-review",
		"url":  "https://claude.ai/plugins/code-review",
	}})
	got := res.Entries[0]

	install := got["install"].(map[string]any)
	if install["kind"] != "manual" {
		t.Errorf("expected manual install, got %v", install["kind"])
	}
	if install["instructions"] != "Enable from Claude plugin catalog." {
		t.Errorf("expected default instructions, got %v", install["instructions"])
	}
	if install["url"] != "https://claude.ai/plugins/code-review" {
		t.Errorf("expected plugin url carried over, got %v", install["url"])
	}

	compat := got["compatibility"].([]string)
	if !contains(compat, "claude") {
		t.Errorf("expected claude compatibility tag, got %v", compat)
	}
}

func TestAdaptCopilotExtensionGhCli(t *testing.T) {
	reg := models.Registry{ID: "copilot-upstream", Kind: models.KindCopilotExtension, Adapter: CopilotExtsV01}

	res := Adapt(reg, []any{map[string]any{"slug": "docs-agent", "installId": "github/docs-agent"}})
	got := res.Entries[0]

	install := got["install"].(map[string]any)
	if install["kind"] != "gh-cli" {
		t.Errorf("expected gh-cli install, got %v", install["kind"])
	}
	if want := []any{"install", "github/docs-agent"}; !reflect.DeepEqual(install["args"], want) {
		t.Errorf("expected default gh args %v, got %v", want, install["args"])
	}

	compat := got["compatibility"].([]string)
	if !contains(compat, "copilot") || !contains(compat, "github") {
		t.Errorf("expected copilot and github tags, got %v", compat)
	}
}

func TestAdaptUnknownAdapterPassesThrough(t *testing.T) {
	reg := models.Registry{ID: "custom", Kind: models.KindMCP, Adapter: "no-such-adapter"}

	entries := []any{
		map[string]any{"id": "kept"},
		42,
	}
	res := Adapt(reg, entries)

	if len(res.Entries) != 1 || res.Entries[0]["id"] != "kept" {
		t.Errorf("expected object passed through, got %+v", res.Entries)
	}
	if res.Dropped != 1 {
		t.Errorf("expected non-object dropped, got %d", res.Dropped)
	}
}

func TestSecuritySignalsFrom(t *testing.T) {
	record := map[string]any{
		"knownVulnerabilities": float64(2),
		"suspiciousPatterns":   float64(1),
	}

	got := securitySignalsFrom(record)
	if got["knownVulnerabilities"] != 2 {
		t.Errorf("expected vulnerability count carried, got %v", got["knownVulnerabilities"])
	}
	if got["integrityAlerts"] != 0 {
		t.Errorf("expected missing counters defaulted to 0, got %v", got["integrityAlerts"])
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
