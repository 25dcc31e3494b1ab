// Package catalog owns the persisted catalog: the reconciled item list,
// its legacy per-kind split views, whitelist/quarantine state, sync-state
// bookkeeping, security reports, and install audits.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/schema"
)

// Store reads and writes the JSON documents under a data directory.
// Every document passes the schema gate on both read and write.
type Store struct {
	dataDir string
}

func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

func (s *Store) itemsPath() string      { return filepath.Join(s.dataDir, "catalog", "items.json") }
func (s *Store) skillsPath() string     { return filepath.Join(s.dataDir, "catalog", "skills.json") }
func (s *Store) mcpsPath() string       { return filepath.Join(s.dataDir, "catalog", "mcps.json") }
func (s *Store) syncStatePath() string  { return filepath.Join(s.dataDir, "catalog", "sync-state.json") }
func (s *Store) whitelistPath() string  { return filepath.Join(s.dataDir, "whitelist", "approved.json") }
func (s *Store) quarantinePath() string { return filepath.Join(s.dataDir, "quarantine", "quarantined.json") }
func (s *Store) reportsDir() string     { return filepath.Join(s.dataDir, "security-reports") }

// LoadItems returns the persisted catalog, falling back to the legacy
// per-kind views when the unified document does not exist yet.
func (s *Store) LoadItems() ([]models.CatalogItem, error) {
	data, err := os.ReadFile(s.itemsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return s.loadLegacyItems()
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	if err := schema.ValidateBytes(schema.CatalogItems, data); err != nil {
		return nil, err
	}
	var items []models.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return items, nil
}

func (s *Store) loadLegacyItems() ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	for _, path := range []string{s.skillsPath(), s.mcpsPath()} {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read legacy catalog view: %w", err)
		}
		if err := schema.ValidateBytes(schema.CatalogItems, data); err != nil {
			return nil, err
		}
		var view []models.CatalogItem
		if err := json.Unmarshal(data, &view); err != nil {
			return nil, fmt.Errorf("parse legacy catalog view %s: %w", path, err)
		}
		items = append(items, view...)
	}
	return items, nil
}

// ItemByID finds one catalog item, or nil when absent.
func (s *Store) ItemByID(id string) (*models.CatalogItem, error) {
	items, err := s.LoadItems()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

// SaveItems persists the unified catalog.
func (s *Store) SaveItems(items []models.CatalogItem) error {
	if items == nil {
		items = []models.CatalogItem{}
	}
	if err := schema.Validate(schema.CatalogItems, items); err != nil {
		return err
	}
	return writeJSON(s.itemsPath(), items)
}

// SaveLegacyViews persists the per-kind split views kept for backward
// compatibility.
func (s *Store) SaveLegacyViews(items []models.CatalogItem) error {
	var skills, mcps []models.CatalogItem
	for _, item := range items {
		switch item.Kind {
		case models.KindSkill:
			skills = append(skills, item)
		case models.KindMCP:
			mcps = append(mcps, item)
		}
	}
	if skills == nil {
		skills = []models.CatalogItem{}
	}
	if mcps == nil {
		mcps = []models.CatalogItem{}
	}
	if err := writeJSON(s.skillsPath(), skills); err != nil {
		return err
	}
	return writeJSON(s.mcpsPath(), mcps)
}

// LoadWhitelist returns the approved id list, sorted. A missing file is
// an empty whitelist.
func (s *Store) LoadWhitelist() ([]string, error) {
	data, err := os.ReadFile(s.whitelistPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	if err := schema.ValidateBytes(schema.Whitelist, data); err != nil {
		return nil, err
	}
	var file models.WhitelistFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse whitelist: %w", err)
	}
	sort.Strings(file.Approved)
	return file.Approved, nil
}

// SaveWhitelist persists the approved set, sorted and deduplicated.
func (s *Store) SaveWhitelist(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	approved := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		approved = append(approved, id)
	}
	sort.Strings(approved)

	file := models.WhitelistFile{Approved: approved}
	if err := schema.Validate(schema.Whitelist, file); err != nil {
		return err
	}
	return writeJSON(s.whitelistPath(), file)
}

// LoadQuarantine returns quarantine entries sorted by id. Missing file
// means nothing is quarantined.
func (s *Store) LoadQuarantine() ([]models.QuarantineEntry, error) {
	data, err := os.ReadFile(s.quarantinePath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read quarantine: %w", err)
	}
	if err := schema.ValidateBytes(schema.Quarantine, data); err != nil {
		return nil, err
	}
	var file models.QuarantineFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse quarantine: %w", err)
	}
	return file.Quarantined, nil
}

// SaveQuarantine persists entries deduplicated by id, last write wins,
// sorted by id.
func (s *Store) SaveQuarantine(entries []models.QuarantineEntry) error {
	byID := make(map[string]models.QuarantineEntry, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}
	sorted := make([]models.QuarantineEntry, 0, len(byID))
	for _, entry := range byID {
		sorted = append(sorted, entry)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	file := models.QuarantineFile{Quarantined: sorted}
	if err := schema.Validate(schema.Quarantine, file); err != nil {
		return err
	}
	return writeJSON(s.quarantinePath(), file)
}

// LoadSyncState reads per-registry sync bookkeeping; a missing or empty
// file yields a fresh state.
func (s *Store) LoadSyncState() (models.SyncState, error) {
	data, err := os.ReadFile(s.syncStatePath())
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewSyncState(), nil
	}
	if err != nil {
		return models.SyncState{}, fmt.Errorf("read sync state: %w", err)
	}
	if err := schema.ValidateBytes(schema.SyncState, data); err != nil {
		return models.SyncState{}, err
	}
	var state models.SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.SyncState{}, fmt.Errorf("parse sync state: %w", err)
	}
	if state.Registries == nil {
		state.Registries = map[string]models.RegistrySyncState{}
	}
	return state, nil
}

// SaveSyncState persists sync bookkeeping atomically.
func (s *Store) SaveSyncState(state models.SyncState) error {
	if err := schema.Validate(schema.SyncState, state); err != nil {
		return err
	}
	return writeJSON(s.syncStatePath(), state)
}

// WriteReport writes a security report under a date-stamped directory and
// returns its path.
func (s *Store) WriteReport(report models.SecurityReport) (string, error) {
	if err := schema.Validate(schema.SecurityReport, report); err != nil {
		return "", err
	}
	date := report.GeneratedAt.UTC().Format("2006-01-02")
	path := filepath.Join(s.reportsDir(), date, "report.json")
	if err := writeJSON(path, report); err != nil {
		return "", err
	}
	return path, nil
}

// ReadReport loads and validates a previously written security report.
func (s *Store) ReadReport(path string) (models.SecurityReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.SecurityReport{}, fmt.Errorf("read report: %w", err)
	}
	if err := schema.ValidateBytes(schema.SecurityReport, data); err != nil {
		return models.SecurityReport{}, err
	}
	var report models.SecurityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return models.SecurityReport{}, fmt.Errorf("parse report: %w", err)
	}
	return report, nil
}

var auditIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// WriteAudit writes one immutable install audit record to a uniquely
// named file. An existing file with the same name is never overwritten.
func (s *Store) WriteAudit(audit models.InstallAudit) (string, error) {
	if err := schema.Validate(schema.InstallAudit, audit); err != nil {
		return "", err
	}

	requested := audit.RequestedAt.UTC()
	stamp := requested.Format("2006-01-02T15-04-05") + fmt.Sprintf("-%09dZ", requested.Nanosecond())
	name := stamp + "-" + auditIDSanitizer.ReplaceAllString(audit.ID, "_") + ".json"
	path := filepath.Join(s.reportsDir(), "audits", name)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create audit dir: %w", err)
	}
	data, err := json.MarshalIndent(audit, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal audit: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create audit record: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("write audit record: %w", err)
	}
	return path, nil
}

// writeJSON writes indented JSON through a temp file and rename so each
// document write is all-or-nothing.
func writeJSON(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
