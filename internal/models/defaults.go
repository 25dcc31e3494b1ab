package models

import "encoding/json"

// Config documents are hand-edited, so absent fields take the documented
// defaults at parse time rather than Go zero values.

func (r *Registry) UnmarshalJSON(data []byte) error {
	type alias Registry
	aux := struct {
		*alias
		Enabled *bool `json:"enabled"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Enabled = aux.Enabled == nil || *aux.Enabled
	if r.Adapter == "" {
		r.Adapter = "direct"
	}
	if r.Entries == nil {
		r.Entries = []any{}
	}
	return nil
}

func (c *RemoteConfig) UnmarshalJSON(data []byte) error {
	type alias RemoteConfig
	aux := struct {
		*alias
		FallbackToLocal *bool `json:"fallbackToLocal"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.FallbackToLocal = aux.FallbackToLocal == nil || *aux.FallbackToLocal
	if c.Format == "" {
		c.Format = FormatJSONArray
	}
	if c.UpdatedSinceParam == "" {
		c.UpdatedSinceParam = "updated_since"
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = 10000
	}
	return nil
}

func (p *PaginationConfig) UnmarshalJSON(data []byte) error {
	type alias PaginationConfig
	if err := json.Unmarshal(data, (*alias)(p)); err != nil {
		return err
	}
	if p.CursorParam == "" {
		p.CursorParam = "cursor"
	}
	if p.NextCursorPath == "" {
		p.NextCursorPath = "next_cursor"
	}
	return nil
}

// DefaultEntryPath returns the catalog-json entry key for a kind when no
// explicit entryPath is configured.
func DefaultEntryPath(kind Kind) string {
	switch kind {
	case KindSkill:
		return "skills"
	case KindMCP:
		return "mcps"
	case KindClaudePlugin:
		return "plugins"
	case KindCopilotExtension:
		return "extensions"
	default:
		return string(kind)
	}
}
