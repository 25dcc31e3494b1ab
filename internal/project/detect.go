// Package project infers a consuming project's stack and compatibility
// tags from marker files in its root directory.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// Signals is the detected profile of a project directory.
type Signals struct {
	Stack             []string `json:"stack"`
	CompatibilityTags []string `json:"compatibilityTags"`
}

type packageManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Detect inspects well-known marker files under root. Detection never
// fails: an unreadable or unrecognized project yields the generic
// profile.
func Detect(root string) Signals {
	stack := map[string]bool{}
	tags := map[string]bool{}

	if exists(filepath.Join(root, "package.json")) {
		stack["node"] = true
		tags["node"] = true

		deps := nodeDependencies(filepath.Join(root, "package.json"))
		if deps["react"] || deps["next"] || deps["next.js"] {
			stack["react"] = true
			tags["react"] = true
		}
		if deps["typescript"] {
			stack["typescript"] = true
			tags["typescript"] = true
		}
	}

	if exists(filepath.Join(root, "pyproject.toml")) || exists(filepath.Join(root, "requirements.txt")) {
		stack["python"] = true
		tags["python"] = true
	}

	if exists(filepath.Join(root, "Dockerfile")) {
		tags["container"] = true
	}

	if exists(filepath.Join(root, "pom.xml")) || exists(filepath.Join(root, "build.gradle")) {
		stack["java"] = true
		tags["java"] = true
	}

	if exists(filepath.Join(root, "go.mod")) {
		stack["go"] = true
		tags["go"] = true
	}

	if exists(filepath.Join(root, "Cargo.toml")) {
		stack["rust"] = true
		tags["rust"] = true
	}

	if exists(filepath.Join(root, "Gemfile")) {
		stack["ruby"] = true
		tags["ruby"] = true
	}

	if len(stack) == 0 {
		stack["unknown"] = true
		tags["general"] = true
	}

	return Signals{
		Stack:             sortedKeys(stack),
		CompatibilityTags: sortedKeys(tags),
	}
}

func nodeDependencies(manifestPath string) map[string]bool {
	deps := map[string]bool{}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return deps
	}

	var manifest packageManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return deps
	}

	for name := range manifest.Dependencies {
		deps[name] = true
	}
	for name := range manifest.DevDependencies {
		deps[name] = true
	}
	return deps
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
