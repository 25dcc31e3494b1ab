package adapter

// mapOpenAISkillEntry maps one entry of the OpenAI skills v1 payload.
func mapOpenAISkillEntry(sourceID string, record map[string]any) map[string]any {
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
		description = "Skill " + name
	}

	capabilities := append(
		extractStringArray(record, "capabilities", "tags"),
		extractStringArray(record, "features")...,
	)
	compatibility := dedupeTags(append(
		extractStringArray(record, "compatibility", "runtimes"),
		extractStringArray(record, "frameworks")...,
	))
	if len(compatibility) == 0 {
		compatibility = []string{"general"}
	}

	target := readNestedString(record, "install", "target")
	if target == "" {
		target = readString(record, "package", "name")
	}
	if target == "" {
		target = slug
	}
	args := readNestedStringArray(record, "install", "args")

	return map[string]any{
		"id":            prefixID(slug, "skill"),
		"kind":          "skill",
		"provider":      "openai",
		"name":          name,
		"description":   description,
		"capabilities":  dedupeTags(capabilities),
		"compatibility": compatibility,
		"source":        sourceID,
		"install": map[string]any{
			"kind":   "skill.sh",
			"target": target,
			"args":   toAnySlice(args),
		},
		"adoptionSignal":    toScore(record["adoptionSignal"], 50),
		"maintenanceSignal": toScore(record["maintenanceSignal"], 50),
		"provenanceSignal":  toScore(record["provenanceSignal"], 75),
		"freshnessSignal":   toScore(record["freshnessSignal"], 55),
		"securitySignals":   securitySignalsFrom(record),
	}
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
