package adapter

import "strings"

// mapMCPRegistryEntry maps one entry of the MCP registry v0.1 payload.
// Returns nil for entries with no usable name.
func mapMCPRegistryEntry(sourceID string, record map[string]any) map[string]any {
	name := readString(record, "name", "id")
	if name == "" {
		return nil
	}

	title := readString(record, "title", "displayName")
	if title == "" {
		title = name
	}
	description := readString(record, "description")
	if description == "" {
		description = "MCP server " + name
	}

	rawPackages, _ := record["packages"].([]any)
	packages := make([]map[string]any, 0, len(rawPackages))
	for _, raw := range rawPackages {
		if pkg, ok := asObject(raw); ok {
			packages = append(packages, pkg)
		}
	}

	compatibility := []string{}
	for _, pkg := range packages {
		compatibility = append(compatibility, detectPackageCompatibility(pkg)...)
	}
	compatibility = append(compatibility, "general")

	capabilities := append(
		extractStringArray(record, "capabilities", "tools"),
		extractStringArray(record, "tags")...,
	)

	target := name
	if len(packages) > 0 {
		if t := readString(packages[0], "identifier", "name"); t != "" {
			target = t
		}
	}

	transport := readString(record, "transport")
	if len(packages) > 0 {
		if t := readNestedString(packages[0], "transport", "type"); t != "" {
			transport = t
		}
	}
	authModel := readString(record, "authModel", "auth")

	out := map[string]any{
		"id":            prefixID(name, "mcp"),
		"kind":          "mcp",
		"provider":      "mcp",
		"name":          title,
		"description":   description,
		"capabilities":  dedupeTags(capabilities),
		"compatibility": dedupeTags(compatibility),
		"source":        sourceID,
		"install": map[string]any{
			"kind":   "skill.sh",
			"target": target,
			"args":   []any{},
		},
		"adoptionSignal":    toScore(record["adoptionSignal"], 50),
		"maintenanceSignal": toScore(record["maintenanceSignal"], 50),
		"provenanceSignal":  toScore(record["provenanceSignal"], 90),
		"freshnessSignal":   toScore(record["freshnessSignal"], 60),
		"securitySignals":   securitySignalsFrom(record),
		"metadata": map[string]any{
			"transport": normalizeTransport(transport),
			"authModel": normalizeAuthModel(authModel),
		},
	}
	return out
}

// detectPackageCompatibility infers runtime tags from package metadata by
// substring matching against known ecosystem keywords.
func detectPackageCompatibility(pkg map[string]any) []string {
	words := strings.ToLower(strings.Join([]string{
		readString(pkg, "registryType"),
		readString(pkg, "runtime"),
		readString(pkg, "name"),
		readString(pkg, "identifier"),
	}, " "))

	var tags []string
	if strings.Contains(words, "npm") || strings.Contains(words, "node") {
		tags = append(tags, "node")
	}
	if strings.Contains(words, "pypi") || strings.Contains(words, "python") {
		tags = append(tags, "python")
	}
	if strings.Contains(words, "docker") || strings.Contains(words, "container") {
		tags = append(tags, "container")
	}
	return tags
}

func normalizeAuthModel(value string) string {
	switch strings.ToLower(value) {
	case "none", "noauth":
		return "none"
	case "api_key", "apikey", "bearer":
		return "api_key"
	case "oauth", "oauth2":
		return "oauth"
	default:
		return "custom"
	}
}

func normalizeTransport(value string) string {
	switch strings.ToLower(value) {
	case "http":
		return "http"
	case "sse":
		return "sse"
	case "websocket", "ws":
		return "websocket"
	default:
		return "stdio"
	}
}
