// Package config loads registry and policy configuration from a config
// directory, validating each document against its schema.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/capguard/capguard/internal/models"
	"github.com/capguard/capguard/internal/schema"
)

// Loader reads configuration documents from Dir.
type Loader struct {
	Dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Registries returns the enabled registries from registries.json.
func (l *Loader) Registries() ([]models.Registry, error) {
	var file models.RegistriesFile
	if err := l.readValidated("registries.json", schema.Registries, &file); err != nil {
		return nil, err
	}

	enabled := make([]models.Registry, 0, len(file.Registries))
	for _, reg := range file.Registries {
		if reg.Enabled {
			enabled = append(enabled, reg)
		}
	}
	return enabled, nil
}

// SecurityPolicy returns security-policy.json, or the stock policy when
// the file does not exist.
func (l *Loader) SecurityPolicy() (models.SecurityPolicy, error) {
	var policy models.SecurityPolicy
	err := l.readValidated("security-policy.json", schema.SecurityPolicy, &policy)
	if os.IsNotExist(err) {
		return models.DefaultSecurityPolicy(), nil
	}
	if err != nil {
		return models.SecurityPolicy{}, err
	}
	return policy, nil
}

// RankingPolicy returns ranking-policy.json, or the stock policy when
// the file does not exist.
func (l *Loader) RankingPolicy() (models.RankingPolicy, error) {
	var policy models.RankingPolicy
	err := l.readValidated("ranking-policy.json", schema.RankingPolicy, &policy)
	if os.IsNotExist(err) {
		return models.DefaultRankingPolicy(), nil
	}
	if err != nil {
		return models.RankingPolicy{}, err
	}
	return policy, nil
}

// Providers returns the enabled provider policies keyed by id. A missing
// providers.json means no provider enforces anything.
func (l *Loader) Providers() (map[string]models.ProviderPolicy, error) {
	var file models.ProvidersFile
	err := l.readValidated("providers.json", schema.Providers, &file)
	if os.IsNotExist(err) {
		return map[string]models.ProviderPolicy{}, nil
	}
	if err != nil {
		return nil, err
	}

	providers := make(map[string]models.ProviderPolicy, len(file.Providers))
	for _, p := range file.Providers {
		if p.Enabled {
			providers[p.ID] = p
		}
	}
	return providers, nil
}

func (l *Loader) readValidated(filename, schemaName string, out any) error {
	path := filepath.Join(l.Dir, filename)

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := schema.ValidateBytes(schemaName, raw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
