package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/capguard/capguard/internal/models"
	"gopkg.in/yaml.v3"
)

// LoadRequirementsProfile reads a JSON or YAML requirements profile from
// path. An empty path returns the default profile.
func LoadRequirementsProfile(path string) (models.RequirementsProfile, error) {
	profile := models.DefaultRequirementsProfile()
	if path == "" {
		return profile, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return models.RequirementsProfile{}, err
	}

	switch {
	case strings.HasSuffix(path, ".json"):
		if err := json.Unmarshal(raw, &profile); err != nil {
			return models.RequirementsProfile{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case strings.HasSuffix(path, ".yml"), strings.HasSuffix(path, ".yaml"):
		if err := yaml.Unmarshal(raw, &profile); err != nil {
			return models.RequirementsProfile{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return models.RequirementsProfile{}, fmt.Errorf("unsupported requirements format: %s", path)
	}

	return profile, nil
}
