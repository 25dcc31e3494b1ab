// Package adapter maps each registry's raw payload shape into the
// canonical item shape. Adapters are total and defensive: a malformed
// entry is dropped, never an error. Output order carries no meaning.
package adapter

import (
	"github.com/capguard/capguard/internal/models"
)

// Adapter names accepted in a registry descriptor.
const (
	Direct           = "direct"
	MCPRegistryV01   = "mcp-registry-v0.1"
	OpenAISkillsV1   = "openai-skills-v1"
	ClaudePluginsV01 = "claude-plugins-v0.1"
	CopilotExtsV01   = "copilot-extensions-v0.1"
)

// Result carries the mapped entries plus the count of entries dropped as
// unmappable, for observability.
type Result struct {
	Entries []map[string]any
	Dropped int
}

type mapFunc func(sourceID string, entry map[string]any) map[string]any

// Adapt runs the registry's adapter over raw entries. Unknown adapter
// names behave like direct pass-through so a config typo degrades to the
// schema gate instead of a crash.
func Adapt(reg models.Registry, entries []any) Result {
	switch reg.Adapter {
	case MCPRegistryV01:
		return run(reg.ID, entries, mapMCPRegistryEntry)
	case OpenAISkillsV1:
		return run(reg.ID, entries, mapOpenAISkillEntry)
	case ClaudePluginsV01:
		return run(reg.ID, entries, mapClaudePluginEntry)
	case CopilotExtsV01:
		return run(reg.ID, entries, mapCopilotExtensionEntry)
	default:
		return passthrough(entries)
	}
}

func run(sourceID string, entries []any, mapEntry mapFunc) Result {
	var res Result
	for _, raw := range entries {
		obj, ok := asObject(raw)
		if !ok {
			res.Dropped++
			continue
		}
		mapped := mapEntry(sourceID, obj)
		if mapped == nil {
			res.Dropped++
			continue
		}
		res.Entries = append(res.Entries, mapped)
	}
	return res
}

// passthrough keeps entries that are at least objects; the schema gate
// downstream enforces the full canonical shape.
func passthrough(entries []any) Result {
	var res Result
	for _, raw := range entries {
		obj, ok := asObject(raw)
		if !ok {
			res.Dropped++
			continue
		}
		res.Entries = append(res.Entries, obj)
	}
	return res
}
