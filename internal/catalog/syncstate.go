package catalog

import (
	"sort"
	"time"

	"github.com/capguard/capguard/internal/models"
)

// StaleAfter is how long a registry may go without a successful sync
// before it is reported stale.
const StaleAfter = 48 * time.Hour

// UpdatedSince returns the registry's incremental fetch cursor, if any.
func UpdatedSince(state models.SyncState, registryID string) string {
	return state.Registries[registryID].LastUpdatedSince
}

// MarkSyncSuccess records a successful sync timestamp for a registry.
func MarkSyncSuccess(state models.SyncState, registryID string, at time.Time) models.SyncState {
	entry := state.Registries[registryID]
	entry.LastSuccessfulSyncAt = at.UTC().Format(time.RFC3339)
	state.Registries[registryID] = entry
	return state
}

// MarkUpdatedSince records the updated-since cursor after a remote fetch.
func MarkUpdatedSince(state models.SyncState, registryID string, at time.Time) models.SyncState {
	entry := state.Registries[registryID]
	entry.LastUpdatedSince = at.UTC().Format(time.RFC3339)
	state.Registries[registryID] = entry
	return state
}

// StaleRegistries lists registries with no successful sync inside the
// staleness window, sorted for stable reports.
func StaleRegistries(state models.SyncState, now time.Time) []string {
	cutoff := now.Add(-StaleAfter)
	stale := []string{}
	for id, entry := range state.Registries {
		if entry.LastSuccessfulSyncAt == "" {
			stale = append(stale, id)
			continue
		}
		stamp, err := time.Parse(time.RFC3339, entry.LastSuccessfulSyncAt)
		if err != nil || stamp.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	return stale
}
