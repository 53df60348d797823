// Package capabilities serves the static documents that describe what each
// downstream integration supports. The documents are YAML files embedded in
// the binary and parsed once at startup.
package capabilities

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed docs/*.yaml
var docs embed.FS

// Auth describes how an integration authenticates.
type Auth struct {
	Env    string `yaml:"env" json:"env"`
	Scheme string `yaml:"scheme" json:"scheme"`
}

// Parameter describes one operation parameter.
type Parameter struct {
	Name        string   `yaml:"name" json:"name"`
	Type        string   `yaml:"type" json:"type"`
	Required    bool     `yaml:"required" json:"required"`
	Description string   `yaml:"description" json:"description"`
	Default     any      `yaml:"default,omitempty" json:"default,omitempty"`
	Enum        []string `yaml:"enum,omitempty" json:"enum,omitempty"`
}

// Operation describes one operation an integration supports.
type Operation struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Method      string      `yaml:"method,omitempty" json:"method,omitempty"`
	Parameters  []Parameter `yaml:"parameters" json:"parameters"`
}

// Document is the capability description of a single integration.
type Document struct {
	Service     string      `yaml:"service" json:"service"`
	Description string      `yaml:"description" json:"description"`
	Status      string      `yaml:"status" json:"status"`
	Auth        *Auth       `yaml:"auth,omitempty" json:"auth,omitempty"`
	Operations  []Operation `yaml:"operations" json:"operations"`
}

// Catalog holds the parsed documents keyed by service name.
type Catalog struct {
	docs map[string]Document
}

// Load parses every embedded document.
func Load() (*Catalog, error) {
	entries, err := docs.ReadDir("docs")
	if err != nil {
		return nil, fmt.Errorf("failed to read capability documents: %w", err)
	}

	c := &Catalog{docs: make(map[string]Document, len(entries))}
	for _, entry := range entries {
		name := path.Join("docs", entry.Name())
		data, err := docs.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if want := strings.TrimSuffix(entry.Name(), ".yaml"); doc.Service != want {
			return nil, fmt.Errorf("%s declares service %q, want %q", name, doc.Service, want)
		}
		c.docs[doc.Service] = doc
	}
	return c, nil
}

// Get returns the document for service.
func (c *Catalog) Get(service string) (Document, bool) {
	doc, ok := c.docs[service]
	return doc, ok
}

// Services returns the known service names in sorted order.
func (c *Catalog) Services() []string {
	names := make([]string, 0, len(c.docs))
	for name := range c.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
