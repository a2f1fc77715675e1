// pkg/registry/schema.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Catalog describes the engines a deployment knows about. It is metadata only; engines
// themselves are registered explicitly in code.
type Catalog struct {
	Version     string       `json:"version"`
	LastUpdated string       `json:"lastUpdated"`
	Engines     []Descriptor `json:"engines"`
}

type Descriptor struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Policy      string   `json:"policy"`
	External    bool     `json:"external"`
	Tags        []string `json:"tags,omitempty"`
}

// Lookup returns the descriptor for name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	if c == nil {
		return Descriptor{}, false
	}
	for _, d := range c.Engines {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Result policies an engine may declare.
const (
	PolicyFill   = "fill"
	PolicyFilter = "filter"
	PolicyMirror = "mirror"
)

var policies = map[string]bool{PolicyFill: true, PolicyFilter: true, PolicyMirror: true}

// Validate checks that every descriptor is named, unique and declares a known policy.
func (c *Catalog) Validate() error {
	if len(c.Engines) == 0 {
		return fmt.Errorf("catalog contains no engines")
	}
	seen := make(map[string]bool, len(c.Engines))
	for i, d := range c.Engines {
		if d.Name == "" {
			return fmt.Errorf("engine #%d: missing name", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate engine %q", d.Name)
		}
		seen[d.Name] = true
		if d.DisplayName == "" {
			return fmt.Errorf("engine %q: missing displayName", d.Name)
		}
		if !policies[d.Policy] {
			return fmt.Errorf("engine %q: unknown policy %q", d.Name, d.Policy)
		}
	}
	return nil
}

// Missing returns the names with no descriptor in the catalog.
func (c *Catalog) Missing(names []string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := c.Lookup(n); !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// SaveCatalog writes the catalog as indented JSON, stamping LastUpdated.
func SaveCatalog(path string, c *Catalog) error {
	c.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
