// Package schema enforces the canonical document shapes. Every persisted
// JSON document is validated on read and on write; a failure here is fatal
// because it indicates an upstream contract break that must not corrupt
// the stores.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Document names, matching files under schemas/.
const (
	CatalogItems   = "catalog-items"
	Whitelist      = "whitelist"
	Quarantine     = "quarantine"
	SyncState      = "sync-state"
	SecurityReport = "security-report"
	InstallAudit   = "install-audit"
	Registries     = "registries"
	SecurityPolicy = "security-policy"
	RankingPolicy  = "ranking-policy"
	Providers      = "providers"
)

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func getSchema(name string) (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		entries, err := schemaFS.ReadDir("schemas")
		if err != nil {
			compileErr = fmt.Errorf("reading embedded schemas: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			data, err := schemaFS.ReadFile("schemas/" + entry.Name())
			if err != nil {
				compileErr = fmt.Errorf("reading schema %s: %w", entry.Name(), err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshaling schema %s: %w", entry.Name(), err)
				return
			}
			if err := c.AddResource(entry.Name(), doc); err != nil {
				compileErr = fmt.Errorf("adding schema %s: %w", entry.Name(), err)
				return
			}
			names = append(names, entry.Name())
		}

		compiled = make(map[string]*jsonschema.Schema, len(names))
		for _, file := range names {
			sch, err := c.Compile(file)
			if err != nil {
				compileErr = fmt.Errorf("compiling schema %s: %w", file, err)
				return
			}
			compiled[file[:len(file)-len(".schema.json")]] = sch
		}
	})
	if compileErr != nil {
		return nil, compileErr
	}
	sch, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema: %s", name)
	}
	return sch, nil
}

// Validate checks a Go value against the named schema. The value is
// round-tripped through JSON so struct tags decide the validated shape.
func Validate(name string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling %s document: %w", name, err)
	}
	return ValidateBytes(name, data)
}

// ValidateBytes checks raw JSON against the named schema.
func ValidateBytes(name string, data []byte) error {
	sch, err := getSchema(name)
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing %s document: %w", name, err)
	}

	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%s document failed validation: %w", name, err)
	}
	return nil
}
