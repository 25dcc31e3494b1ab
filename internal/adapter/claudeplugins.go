package adapter

// mapClaudePluginEntry maps one entry of the Claude plugins v0.1 payload.
// Plugins install manually, so the directive carries instructions and an
// optional catalog URL instead of a target.
func mapClaudePluginEntry(sourceID string, record map[string]any) map[string]any {
	slug := readString(record, "slug", "id", "name")
	if slug == "" {
		return nil
	}

	name := readString(record, "title", "name")
	if name == "" {
		name = slug
	}
	description := readString(record, "description", "summary")
	if description == "" {
		description = "Claude plugin " + name
	}

	capabilities := append(
		extractStringArray(record, "capabilities", "tools"),
		extractStringArray(record, "tags")...,
	)
	compatibility := append(
		extractStringArray(record, "compatibility", "targets"),
		"claude",
	)

	installURL := readNestedString(record, "install", "url")
	if installURL == "" {
		installURL = readString(record, "url")
	}
	instructions := readNestedString(record, "install", "instructions")
	if instructions == "" {
		instructions = "Enable from Claude plugin catalog."
	}

	install := map[string]any{
		"kind":         "manual",
		"instructions": instructions,
	}
	if installURL != "" {
		install["url"] = installURL
	}

	return map[string]any{
		"id":                prefixID(slug, "claude-plugin"),
		"kind":              "claude-plugin",
		"provider":          "anthropic",
		"name":              name,
		"description":       description,
		"capabilities":      dedupeTags(capabilities),
		"compatibility":     dedupeTags(compatibility),
		"source":            sourceID,
		"install":           install,
		"adoptionSignal":    toScore(record["adoptionSignal"], 50),
		"maintenanceSignal": toScore(record["maintenanceSignal"], 50),
		"provenanceSignal":  toScore(record["provenanceSignal"], 95),
		"freshnessSignal":   toScore(record["freshnessSignal"], 65),
		"securitySignals":   securitySignalsFrom(record),
	}
}
