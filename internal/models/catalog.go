package models

// Kind enumerates the capability categories tracked in the catalog.
type Kind string

const (
	KindSkill            Kind = "skill"
	KindMCP              Kind = "mcp"
	KindClaudePlugin     Kind = "claude-plugin"
	KindCopilotExtension Kind = "copilot-extension"
)

// Kinds lists every valid kind in catalog order.
func Kinds() []Kind {
	return []Kind{KindSkill, KindMCP, KindClaudePlugin, KindCopilotExtension}
}

// ValidKind reports whether k is a known catalog kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindSkill, KindMCP, KindClaudePlugin, KindCopilotExtension:
		return true
	}
	return false
}

// InstallKind discriminates the install directive variants.
type InstallKind string

const (
	InstallKindSkillSh InstallKind = "skill.sh"
	InstallKindGhCli   InstallKind = "gh-cli"
	InstallKindManual  InstallKind = "manual"
)

// InstallDirective is a tagged variant: skill.sh and gh-cli carry a target
// plus args, manual carries instructions plus an optional URL. Validate
// enforces the per-kind required fields.
type InstallDirective struct {
	Kind         InstallKind `json:"kind"`
	Target       string      `json:"target,omitempty"`
	Args         []string    `json:"args,omitempty"`
	Instructions string      `json:"instructions,omitempty"`
	URL          string      `json:"url,omitempty"`
}

// Validate checks kind-specific required fields.
func (d InstallDirective) Validate() error {
	switch d.Kind {
	case InstallKindSkillSh, InstallKindGhCli:
		if d.Target == "" {
			return &FieldError{Field: "install.target", Reason: "required for " + string(d.Kind) + " installer"}
		}
	case InstallKindManual:
		if d.Instructions == "" {
			return &FieldError{Field: "install.instructions", Reason: "required for manual installer"}
		}
	default:
		return &FieldError{Field: "install.kind", Reason: "unknown installer kind: " + string(d.Kind)}
	}
	return nil
}

// FieldError describes a single invalid field on a record.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// SecuritySignals holds the raw scanner counters for an item.
type SecuritySignals struct {
	KnownVulnerabilities int `json:"knownVulnerabilities"`
	SuspiciousPatterns   int `json:"suspiciousPatterns"`
	InjectionFindings    int `json:"injectionFindings"`
	ExfiltrationSignals  int `json:"exfiltrationSignals"`
	IntegrityAlerts      int `json:"integrityAlerts"`
}

// IsZero reports whether every counter is zero.
func (s SecuritySignals) IsZero() bool {
	return s == SecuritySignals{}
}

// CatalogItem is the canonical record for an installable capability,
// regardless of which registry format it came from. Capabilities and
// compatibility are case-insensitively deduplicated and lexically sorted
// on every write; IDs are namespaced by kind (e.g. "mcp:filesystem").
type CatalogItem struct {
	ID                string           `json:"id"`
	Kind              Kind             `json:"kind"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Provider          string           `json:"provider"`
	Capabilities      []string         `json:"capabilities"`
	Compatibility     []string         `json:"compatibility"`
	Source            string           `json:"source"`
	LastSeenAt        string           `json:"lastSeenAt"`
	Install           InstallDirective `json:"install"`
	AdoptionSignal    float64          `json:"adoptionSignal"`
	MaintenanceSignal float64          `json:"maintenanceSignal"`
	ProvenanceSignal  float64          `json:"provenanceSignal"`
	FreshnessSignal   float64          `json:"freshnessSignal"`
	SecuritySignals   SecuritySignals  `json:"securitySignals"`
	Metadata          map[string]any   `json:"metadata,omitempty"`
}

// SourceType classifies a registry.
type SourceType string

const (
	SourceTypePublicIndex   SourceType = "public-index"
	SourceTypeVendorFeed    SourceType = "vendor-feed"
	SourceTypeCommunityList SourceType = "community-list"
)

// PaginationConfig describes cursor pagination of a remote registry.
type PaginationConfig struct {
	CursorParam    string `json:"cursorParam"`
	NextCursorPath string `json:"nextCursorPath"`
	LimitParam     string `json:"limitParam,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// RemoteConfig describes how to fetch a registry's entries remotely.
type RemoteConfig struct {
	URL                  string            `json:"url"`
	Format               string            `json:"format"` // "json-array" or "catalog-json"
	EntryPath            string            `json:"entryPath,omitempty"`
	Provider             string            `json:"provider,omitempty"`
	SupportsUpdatedSince bool              `json:"supportsUpdatedSince"`
	UpdatedSinceParam    string            `json:"updatedSinceParam,omitempty"`
	Pagination           *PaginationConfig `json:"pagination,omitempty"`
	TimeoutMs            int               `json:"timeoutMs,omitempty"`
	AuthEnv              string            `json:"authEnv,omitempty"`
	FallbackToLocal      bool              `json:"fallbackToLocal"`
}

const (
	FormatJSONArray   = "json-array"
	FormatCatalogJSON = "catalog-json"
)

// Registry is a named source descriptor. Entries holds the static local
// fallback payload; Remote, when set, takes precedence unless resolution
// falls back.
type Registry struct {
	ID         string        `json:"id"`
	Kind       Kind          `json:"kind"`
	SourceType SourceType    `json:"sourceType"`
	Adapter    string        `json:"adapter"`
	Enabled    bool          `json:"enabled"`
	Official   bool          `json:"official,omitempty"`
	Entries    []any         `json:"entries"`
	Remote     *RemoteConfig `json:"remote,omitempty"`
}

// RegistriesFile is the on-disk registry list.
type RegistriesFile struct {
	Registries []Registry `json:"registries"`
}

// RegistrySyncState is per-registry sync bookkeeping.
type RegistrySyncState struct {
	LastSuccessfulSyncAt string `json:"lastSuccessfulSyncAt,omitempty"`
	LastUpdatedSince     string `json:"lastUpdatedSince,omitempty"`
}

// SyncState is read at the start of a sync run, mutated after each
// registry's resolution, and persisted atomically at the end of the run.
type SyncState struct {
	Registries map[string]RegistrySyncState `json:"registries"`
}

// NewSyncState returns an empty state with an allocated registry map.
func NewSyncState() SyncState {
	return SyncState{Registries: map[string]RegistrySyncState{}}
}
