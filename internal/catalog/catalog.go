// Package catalog holds the enumerated source types and their identifier keys.
package catalog

import (
	_ "embed"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/conscious-backend/internal/domain"
)

//go:embed sources.yaml
var defaultYAML []byte

type KeySpec struct {
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Desc     string   `yaml:"desc,omitempty" json:"desc,omitempty"`
	Examples []string `yaml:"examples,omitempty" json:"examples,omitempty"`
}

type SourceType struct {
	Label string             `yaml:"label,omitempty" json:"label,omitempty"`
	Keys  map[string]KeySpec `yaml:"keys" json:"keys"`
}

type Catalog struct {
	Sources map[string]SourceType `yaml:"sources" json:"sources"`
	Tasks   map[string][]string   `yaml:"tasks" json:"tasks"`
}

// Default parses the embedded catalog. It panics on malformed YAML, which only
// a broken build can produce.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded sources.yaml: %v", err))
	}
	return c
}

// Parse decodes and checks a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if len(c.Sources) == 0 {
		return nil, fmt.Errorf("no source types defined")
	}
	for name, st := range c.Sources {
		if name != strings.ToLower(name) {
			return nil, fmt.Errorf("source type %q must be lower case", name)
		}
		if len(st.Keys) == 0 {
			return nil, fmt.Errorf("source type %q has no identifier keys", name)
		}
		hasRequired := false
		for k, def := range st.Keys {
			if k != strings.ToLower(k) {
				return nil, fmt.Errorf("source type %q: key %q must be lower case", name, k)
			}
			hasRequired = hasRequired || def.Required
		}
		if !hasRequired {
			return nil, fmt.Errorf("source type %q has no required key", name)
		}
	}
	for task, types := range c.Tasks {
		for _, t := range types {
			if _, ok := c.Sources[t]; !ok {
				return nil, fmt.Errorf("task %q references unknown source type %q", task, t)
			}
		}
	}
	return &c, nil
}

// Identity is a validated natural key.
type Identity struct {
	Type        string
	Identifiers map[string]string
	// Canonical is the stable string form stored in source.identifier.
	Canonical string
}

// Resolve validates identifiers against sourceType and canonicalizes them.
// Keys are lowercased and values trimmed; empty optional keys are dropped.
func (c *Catalog) Resolve(sourceType string, identifiers map[string]string) (Identity, error) {
	const op = "catalog.resolve"
	sourceType = strings.ToLower(strings.TrimSpace(sourceType))
	if sourceType == "" {
		return Identity{}, domain.NewError(domain.CodeInvalidIdentity, op, "source type is required", nil)
	}
	st, ok := c.Sources[sourceType]
	if !ok {
		return Identity{}, domain.Errorf(domain.CodeInvalidIdentity, op, "unknown source type %q", sourceType)
	}
	if len(identifiers) == 0 {
		return Identity{}, domain.Errorf(domain.CodeInvalidIdentity, op, "identifiers are required for %q", sourceType)
	}

	clean := make(map[string]string, len(identifiers))
	seen := make(map[string]bool, len(identifiers))
	for k, v := range identifiers {
		key := strings.ToLower(strings.TrimSpace(k))
		val := strings.TrimSpace(v)
		if seen[key] {
			return Identity{}, domain.Errorf(domain.CodeInvalidIdentity, op, "identifier %q given more than once for %q", key, sourceType)
		}
		seen[key] = true
		if key == "type" {
			continue
		}
		if _, known := st.Keys[key]; !known {
			return Identity{}, domain.Errorf(domain.CodeInvalidIdentity, op, "unknown identifier %q for %q", key, sourceType)
		}
		if val == "" {
			continue
		}
		clean[key] = val
	}
	for key, def := range st.Keys {
		if def.Required && clean[key] == "" {
			return Identity{}, domain.Errorf(domain.CodeInvalidIdentity, op, "identifier %q is required for %q", key, sourceType)
		}
	}
	return Identity{Type: sourceType, Identifiers: clean, Canonical: Canonicalize(clean)}, nil
}

// Canonicalize renders identifiers as sorted, query-escaped key=value pairs.
func Canonicalize(identifiers map[string]string) string {
	vals := url.Values{}
	for k, v := range identifiers {
		vals.Set(k, v)
	}
	return vals.Encode()
}

// TypeNames returns the source type names in sorted order.
func (c *Catalog) TypeNames() []string {
	out := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SourcesForTask lists the source types a thought type may be extracted from.
func (c *Catalog) SourcesForTask(task string) []string {
	return c.Tasks[strings.ToLower(strings.TrimSpace(task))]
}
