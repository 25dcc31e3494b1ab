package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/capguard/capguard/internal/adapter"
	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/observability/logging"
	"github.com/capguard/capguard/internal/registry"
)

// Syncer runs one batch sync across all enabled registries. Registries
// are resolved sequentially; all catalog writes happen in a single step
// at the end of the run.
type Syncer struct {
	Store      *Store
	Resolver   *registry.Resolver
	Registries []models.Registry
	Providers  map[string]models.ProviderPolicy
	// Today overrides the lastSeenAt date stamp (YYYY-MM-DD); empty
	// means the current date.
	Today string
	// Now is swappable for tests.
	Now func() time.Time
}

// SyncResult reports the outcome of one run.
type SyncResult struct {
	Items           []models.CatalogItem
	StaleRegistries []string
	// Dropped counts adapter-dropped entries per registry.
	Dropped map[string]int
	// Skipped lists registries skipped by provider policy.
	Skipped []string
	// Failed maps registry ids to their fatal resolution errors. One
	// registry failing does not abort the others.
	Failed map[string]error
	// Drift is populated when the syncer is asked to compare against
	// the previously persisted catalog.
	Drift *DriftReport
}

// Options selects a subset of registries and toggles drift reporting.
type Options struct {
	Kinds      []models.Kind
	TrackDrift bool
}

// Run resolves every enabled registry, reconciles the results, and
// persists the catalog, the legacy views, and sync state.
func (s *Syncer) Run(ctx context.Context, opts Options) (*SyncResult, error) {
	log := logging.From(ctx)
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	today := s.Today
	if today == "" {
		today = now().UTC().Format("2006-01-02")
	}

	state, err := s.Store.LoadSyncState()
	if err != nil {
		return nil, err
	}

	var previous []models.CatalogItem
	if opts.TrackDrift {
		previous, err = s.Store.LoadItems()
		if err != nil {
			return nil, err
		}
	}

	kindFilter := make(map[models.Kind]bool, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kindFilter[k] = true
	}

	result := &SyncResult{
		Dropped: map[string]int{},
		Failed:  map[string]error{},
	}
	var all []models.CatalogItem

	for _, reg := range s.Registries {
		if len(kindFilter) > 0 && !kindFilter[reg.Kind] {
			continue
		}
		if s.skippedByProviderPolicy(reg) {
			log.Warn("sync", "skipping non-official registry due to provider policy",
				"registry", reg.ID, "provider", reg.Remote.Provider)
			result.Skipped = append(result.Skipped, reg.ID)
			continue
		}

		updatedSince := ""
		if reg.Remote != nil && reg.Remote.SupportsUpdatedSince {
			updatedSince = UpdatedSince(state, reg.ID)
		}

		resolved, err := s.Resolver.Resolve(ctx, reg, registry.Options{UpdatedSince: updatedSince})
		if err != nil {
			if registry.IsContractError(err) {
				// Contract breaks must not silently corrupt the catalog.
				return nil, err
			}
			log.Error("sync", "registry resolution failed", "registry", reg.ID, "error", err.Error())
			result.Failed[reg.ID] = err
			continue
		}

		// Local fallback entries are stored in canonical shape already;
		// only remote payloads need the registry's adapter.
		var adapted adapter.Result
		if resolved.Provenance == registry.ProvenanceRemote {
			adapted = adapter.Adapt(reg, resolved.Entries)
		} else {
			adapted = adapter.Adapt(models.Registry{ID: reg.ID, Kind: reg.Kind, Adapter: adapter.Direct}, resolved.Entries)
		}
		if adapted.Dropped > 0 {
			result.Dropped[reg.ID] = adapted.Dropped
			log.Debug("sync", "dropped unmappable entries", "registry", reg.ID, "count", adapted.Dropped)
		}

		items, err := Normalize(adapted.Entries, reg, today)
		if err != nil {
			// Validation failures are fatal for the whole run.
			return nil, err
		}
		all = append(all, items...)

		stamp := now()
		state = MarkSyncSuccess(state, reg.ID, stamp)
		if reg.Remote != nil && reg.Remote.SupportsUpdatedSince && resolved.Provenance == registry.ProvenanceRemote {
			state = MarkUpdatedSince(state, reg.ID, stamp)
		}
	}

	result.Items = Merge(all)

	if err := s.Store.SaveItems(result.Items); err != nil {
		return nil, err
	}
	if err := s.Store.SaveLegacyViews(result.Items); err != nil {
		return nil, err
	}
	if err := s.Store.SaveSyncState(state); err != nil {
		return nil, err
	}

	if opts.TrackDrift {
		drift, err := Drift(previous, result.Items)
		if err != nil {
			return nil, fmt.Errorf("compute catalog drift: %w", err)
		}
		result.Drift = drift
	}

	counts := map[models.Kind]int{}
	for _, item := range result.Items {
		counts[item.Kind]++
	}
	log.Info("sync", "catalog synced",
		"items", len(result.Items),
		"skills", counts[models.KindSkill],
		"mcps", counts[models.KindMCP],
		"claude_plugins", counts[models.KindClaudePlugin],
		"copilot_extensions", counts[models.KindCopilotExtension])

	result.StaleRegistries = StaleRegistries(state, now())
	if len(result.StaleRegistries) > 0 {
		log.Warn("sync", "stale registries detected", "registries", result.StaleRegistries)
	}

	return result, nil
}

// skippedByProviderPolicy applies official-only enforcement: a community
// registry is skipped when its provider mandates official sourcing and
// the registry isn't itself marked official.
func (s *Syncer) skippedByProviderPolicy(reg models.Registry) bool {
	if reg.Remote == nil || reg.Remote.Provider == "" {
		return false
	}
	provider, ok := s.Providers[reg.Remote.Provider]
	if !ok || !provider.Enabled {
		return false
	}
	return provider.OfficialOnly && reg.SourceType == models.SourceTypeCommunityList && !reg.Official
}
