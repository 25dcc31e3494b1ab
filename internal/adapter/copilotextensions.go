package adapter

// mapCopilotExtensionEntry maps one entry of the Copilot extensions v0.1
// payload. Extensions install through the gh CLI.
func mapCopilotExtensionEntry(sourceID string, record map[string]any) map[string]any {
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
		description = "Copilot extension " + name
	}

	capabilities := append(
		extractStringArray(record, "capabilities", "tools"),
		extractStringArray(record, "tags")...,
	)
	compatibility := append(
		extractStringArray(record, "compatibility", "targets"),
		"copilot", "github",
	)

	installTarget := readString(record, "installId", "name")
	if installTarget == "" {
		installTarget = slug
	}
	args := readNestedStringArray(record, "install", "args")
	if len(args) == 0 {
		args = []string{"install", installTarget}
	}

	return map[string]any{
		"id":            prefixID(slug, "copilot-extension"),
		"kind":          "copilot-extension",
		"provider":      "github",
		"name":          name,
		"description":   description,
		"capabilities":  dedupeTags(capabilities),
		"compatibility": dedupeTags(compatibility),
		"source":        sourceID,
		"install": map[string]any{
			"kind":   "gh-cli",
			"target": "copilot-extension",
			"args":   toAnySlice(args),
		},
		"adoptionSignal":    toScore(record["adoptionSignal"], 50),
		"maintenanceSignal": toScore(record["maintenanceSignal"], 50),
		"provenanceSignal":  toScore(record["provenanceSignal"], 96),
		"freshnessSignal":   toScore(record["freshnessSignal"], 70),
		"securitySignals":   securitySignalsFrom(record),
	}
}
