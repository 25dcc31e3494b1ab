package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/schema"
)

// Normalize fills per-registry defaults on adapted entries and passes
// each through the schema gate. A record that fails the gate is fatal:
// it means an adapter or remote contract broke upstream.
func Normalize(entries []map[string]any, reg models.Registry, today string) ([]models.CatalogItem, error) {
	items := make([]models.CatalogItem, 0, len(entries))

	for _, entry := range entries {
		record := make(map[string]any, len(entry))
		for k, v := range entry {
			record[k] = v
		}

		kind := reg.Kind
		if k, ok := record["kind"].(string); ok && k != "" {
			kind = models.Kind(k)
		}
		record["kind"] = string(kind)

		id, _ := record["id"].(string)
		record["id"] = normalizeID(id, kind)

		if p, ok := record["provider"].(string); !ok || p == "" {
			provider := ""
			if reg.Remote != nil {
				provider = reg.Remote.Provider
			}
			if provider == "" {
				provider = inferProviderFromKind(kind)
			}
			record["provider"] = provider
		}
		if src, ok := record["source"].(string); !ok || src == "" {
			record["source"] = reg.ID
		}
		if seen, ok := record["lastSeenAt"].(string); !ok || seen == "" {
			record["lastSeenAt"] = today
		}
		applySignalDefaults(record)

		item, err := decodeItem(record)
		if err != nil {
			return nil, fmt.Errorf("registry %s: %w", reg.ID, err)
		}
		item.Capabilities = dedupeTags(item.Capabilities)
		item.Compatibility = dedupeTags(item.Compatibility)
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func decodeItem(record map[string]any) (models.CatalogItem, error) {
	if err := schema.Validate(schema.CatalogItems, []any{record}); err != nil {
		return models.CatalogItem{}, err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return models.CatalogItem{}, fmt.Errorf("marshal entry: %w", err)
	}
	var item models.CatalogItem
	if err := json.Unmarshal(data, &item); err != nil {
		return models.CatalogItem{}, fmt.Errorf("decode entry: %w", err)
	}
	if err := item.Install.Validate(); err != nil {
		return models.CatalogItem{}, fmt.Errorf("entry %s: %w", item.ID, err)
	}
	return item, nil
}

func applySignalDefaults(record map[string]any) {
	for _, key := range []string{"adoptionSignal", "maintenanceSignal", "provenanceSignal", "freshnessSignal"} {
		if _, ok := record[key]; !ok {
			record[key] = 50
		}
	}
	if _, ok := record["securitySignals"]; !ok {
		record["securitySignals"] = map[string]any{
			"knownVulnerabilities": 0,
			"suspiciousPatterns":   0,
			"injectionFindings":    0,
			"exfiltrationSignals":  0,
			"integrityAlerts":      0,
		}
	}
	if _, ok := record["capabilities"]; !ok {
		record["capabilities"] = []any{}
	}
	if _, ok := record["compatibility"]; !ok {
		record["compatibility"] = []any{}
	}
}

var idPrefixPattern = func(s string) (string, bool) {
	i := strings.Index(s, ":")
	if i <= 0 {
		return "", false
	}
	return s[:i], true
}

// normalizeID ensures ids are namespaced by kind, replacing a foreign
// kind prefix when present.
func normalizeID(id string, kind models.Kind) string {
	if strings.HasPrefix(id, string(kind)+":") {
		return id
	}
	if prefix, ok := idPrefixPattern(id); ok && models.ValidKind(models.Kind(prefix)) {
		id = id[len(prefix)+1:]
	}
	return string(kind) + ":" + id
}

func inferProviderFromKind(kind models.Kind) string {
	switch kind {
	case models.KindMCP:
		return "mcp"
	case models.KindClaudePlugin:
		return "anthropic"
	case models.KindCopilotExtension:
		return "github"
	default:
		return "openai"
	}
}

// Merge reconciles duplicate ids into one record per id, sorted by id.
// Sources are assumed only to add positive signal, never retract it, so
// the merge is optimistic: longer name/description wins, tag sets union,
// trust signals take the max, lastSeenAt takes the later date, metadata
// shallow-merges with the later entry winning on key conflict.
func Merge(items []models.CatalogItem) []models.CatalogItem {
	byID := make(map[string]models.CatalogItem, len(items))
	order := make([]string, 0, len(items))

	for _, item := range items {
		existing, ok := byID[item.ID]
		if !ok {
			byID[item.ID] = item
			order = append(order, item.ID)
			continue
		}
		byID[item.ID] = mergeItem(existing, item)
	}

	merged := make([]models.CatalogItem, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}

func mergeItem(existing, incoming models.CatalogItem) models.CatalogItem {
	out := existing

	if len(incoming.Name) > len(existing.Name) {
		out.Name = incoming.Name
	}
	if len(incoming.Description) > len(existing.Description) {
		out.Description = incoming.Description
	}
	out.Capabilities = dedupeTags(append(append([]string{}, existing.Capabilities...), incoming.Capabilities...))
	out.Compatibility = dedupeTags(append(append([]string{}, existing.Compatibility...), incoming.Compatibility...))
	out.AdoptionSignal = maxFloat(existing.AdoptionSignal, incoming.AdoptionSignal)
	out.MaintenanceSignal = maxFloat(existing.MaintenanceSignal, incoming.MaintenanceSignal)
	out.ProvenanceSignal = maxFloat(existing.ProvenanceSignal, incoming.ProvenanceSignal)
	out.FreshnessSignal = maxFloat(existing.FreshnessSignal, incoming.FreshnessSignal)
	if incoming.LastSeenAt >= existing.LastSeenAt {
		out.LastSeenAt = incoming.LastSeenAt
	}
	if len(existing.Metadata) > 0 || len(incoming.Metadata) > 0 {
		meta := make(map[string]any, len(existing.Metadata)+len(incoming.Metadata))
		for k, v := range existing.Metadata {
			meta[k] = v
		}
		for k, v := range incoming.Metadata {
			meta[k] = v
		}
		out.Metadata = meta
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

// dedupeTags lowercases, deduplicates, and lexically sorts tag sets; the
// catalog invariant is that both tag lists hold this form on every write.
func dedupeTags(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
