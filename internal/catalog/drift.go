package catalog

import (
	"fmt"

	"github.com/capguard/capguard/internal/models"
	"github.com/wI2L/jsondiff"
)

// DriftType classifies a per-item catalog change between sync runs.
type DriftType string

const (
	DriftTypeAdded   DriftType = "added"
	DriftTypeRemoved DriftType = "removed"
	DriftTypeChanged DriftType = "changed"
)

// ItemDrift is one item's change, with raw JSON patches for changed
// items so reviewers can see exactly which fields moved.
type ItemDrift struct {
	ID        string
	DriftType DriftType
	Patch     jsondiff.Patch
}

// DriftReport summarizes catalog changes between two sync runs.
type DriftReport struct {
	HasChanges bool
	Items      []ItemDrift
}

// Drift compares the previously persisted catalog against the freshly
// reconciled one, by id.
func Drift(previous, current []models.CatalogItem) (*DriftReport, error) {
	prevByID := make(map[string]models.CatalogItem, len(previous))
	for _, item := range previous {
		prevByID[item.ID] = item
	}
	currByID := make(map[string]models.CatalogItem, len(current))
	for _, item := range current {
		currByID[item.ID] = item
	}

	report := &DriftReport{}

	for _, item := range previous {
		if _, found := currByID[item.ID]; !found {
			report.Items = append(report.Items, ItemDrift{ID: item.ID, DriftType: DriftTypeRemoved})
		}
	}

	for _, item := range current {
		old, found := prevByID[item.ID]
		if !found {
			report.Items = append(report.Items, ItemDrift{ID: item.ID, DriftType: DriftTypeAdded})
			continue
		}

		patch, err := jsondiff.Compare(old, item)
		if err != nil {
			return nil, fmt.Errorf("diff item %s: %w", item.ID, err)
		}
		if len(patch) > 0 {
			report.Items = append(report.Items, ItemDrift{ID: item.ID, DriftType: DriftTypeChanged, Patch: patch})
		}
	}

	report.HasChanges = len(report.Items) > 0
	return report, nil
}

// FormatDrift renders one drift entry for human output.
func FormatDrift(d ItemDrift) string {
	switch d.DriftType {
	case DriftTypeAdded:
		return fmt.Sprintf("Item [%s] ADDED", d.ID)
	case DriftTypeRemoved:
		return fmt.Sprintf("Item [%s] REMOVED", d.ID)
	case DriftTypeChanged:
		return fmt.Sprintf("Item [%s] changed (%d field ops)", d.ID, len(d.Patch))
	default:
		return fmt.Sprintf("Item [%s] unknown drift", d.ID)
	}
}
