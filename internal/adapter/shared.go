package adapter

import (
	"sort"
	"strconv"
	"strings"
)

// asObject narrows a raw entry to an object. Arrays and scalars are not
// mappable and are dropped by callers.
func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// readString returns the first non-blank string value among the candidate
// keys, trimmed.
func readString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// readNestedString walks a key path and returns the string at the end,
// or "" when any segment is missing or not an object.
func readNestedString(m map[string]any, path ...string) string {
	var current any = m
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = obj[key]
	}
	if s, ok := current.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// extractStringArray returns the first array value among the candidate
// keys, filtered to non-blank strings.
func extractStringArray(m map[string]any, keys ...string) []string {
	for _, key := range keys {
		raw, ok := m[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					out = append(out, trimmed)
				}
			}
		}
		return out
	}
	return nil
}

// readNestedStringArray walks a key path to an array of strings.
func readNestedStringArray(m map[string]any, path ...string) []string {
	var current any = m
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[key]
	}
	raw, ok := current.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

// dedupeTags lowercases, deduplicates, and lexically sorts tag values.
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

// toScore coerces a raw value to a 0-100 signal, using the fallback when
// the value is absent or not numeric.
func toScore(v any, fallback float64) float64 {
	n, ok := toNumber(v)
	if !ok {
		return fallback
	}
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// toCount coerces a raw value to a non-negative integer counter.
func toCount(v any) int {
	n, ok := toNumber(v)
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// securitySignalsFrom reads the flat counter keys off a raw entry.
func securitySignalsFrom(m map[string]any) map[string]any {
	return map[string]any{
		"knownVulnerabilities": toCount(m["knownVulnerabilities"]),
		"suspiciousPatterns":   toCount(m["suspiciousPatterns"]),
		"injectionFindings":    toCount(m["injectionFindings"]),
		"exfiltrationSignals":  toCount(m["exfiltrationSignals"]),
		"integrityAlerts":      toCount(m["integrityAlerts"]),
	}
}

func prefixID(slug, kind string) string {
	if strings.HasPrefix(slug, kind+":") {
		return slug
	}
	return kind + ":" + slug
}
