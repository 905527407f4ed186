// Package schema holds the JSON Schemas for the files bedtime reads from
// disk and validates them before they are decoded.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrInvalidDocument is returned when a document does not match its schema.
var ErrInvalidDocument = errors.New("document does not match schema")

const (
	// Catalog is the schema for content catalog override files.
	Catalog = "Catalog"
	// Library is the schema for library files and library imports.
	Library = "Library"
)

// Schema represents a JSON Schema document.
type Schema struct {
	Name   string // Schema name (e.g., "Catalog")
	Source string // JSON Schema source
	Order  int    // Listing order
}

var registry = []Schema{
	{Name: Catalog, Order: 1},
	{Name: Library, Order: 2},
}

var (
	compiledMu sync.Mutex
	compiled   = map[string]*jsonschema.Schema{}
)

// All returns all schemas in registry order.
func All() ([]Schema, error) {
	schemas := make([]Schema, len(registry))
	copy(schemas, registry)

	for i := range schemas {
		content, err := schemaFS.ReadFile(filename(schemas[i].Name))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", schemas[i].Name, err)
		}
		schemas[i].Source = string(content)
	}

	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].Order < schemas[j].Order
	})

	return schemas, nil
}

// Get returns a single schema by name.
func Get(name string) (*Schema, error) {
	for _, s := range registry {
		if s.Name == name {
			content, err := schemaFS.ReadFile(filename(s.Name))
			if err != nil {
				return nil, fmt.Errorf("failed to read schema %s: %w", s.Name, err)
			}
			return &Schema{Name: s.Name, Source: string(content), Order: s.Order}, nil
		}
	}
	return nil, fmt.Errorf("schema not found: %s", name)
}

// Validate checks a raw JSON document against the named schema.
// Violations are reported wrapped in ErrInvalidDocument.
func Validate(name string, data []byte) error {
	sch, err := compile(name)
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// compile compiles a schema once and caches it.
func compile(name string) (*jsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if sch, ok := compiled[name]; ok {
		return sch, nil
	}

	s, err := Get(name)
	if err != nil {
		return nil, err
	}

	resource := filename(name)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, bytes.NewReader([]byte(s.Source))); err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	sch, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	compiled[name] = sch
	return sch, nil
}

// filename maps a schema name to its embedded file.
func filename(name string) string {
	return fmt.Sprintf("schemas/%s.json", lowercase(name))
}

// lowercase converts a name to lowercase for filename lookup.
func lowercase(s string) string {
	return strings.ToLower(s)
}
