package staticdefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saturn-sh/saturn/pkg/types"
)

// file is the on-disk shape of one definitions YAML file: a flat list
// of resource instances, optionally all of the same type.
type file struct {
	Resources []entry `yaml:"resources"`
}

type entry struct {
	Name         string            `yaml:"name"`
	Type         string            `yaml:"type"`
	Data         map[string]string `yaml:"data,omitempty"`
	DefaultDelay string            `yaml:"default_delay,omitempty"`
}

// Definitions is the loaded, merged content of a static definitions
// directory, indexed by resource type.
type Definitions struct {
	ByType map[string][]types.Resource
}

// ResourcesForType returns the known instances of resourceType, sorted
// by name to match lock.py's deterministic response ordering.
func (d *Definitions) ResourcesForType(resourceType string) []types.Resource {
	return d.ByType[resourceType]
}

// Load reads every *.yaml/*.yml file directly under dir and merges
// their resource entries into a Definitions. A missing directory is
// not an error: it is treated as an empty definitions set, since
// static resource definitions are optional.
func Load(dir string) (*Definitions, error) {
	defs := &Definitions{ByType: make(map[string][]types.Resource)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return defs, nil
		}
		return nil, fmt.Errorf("staticdefs: read dir %s: %w", dir, err)
	}

	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		ext := filepath.Ext(de.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, de.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("staticdefs: read %s: %w", path, err)
		}

		var f file
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("staticdefs: parse %s: %w", path, err)
		}

		for _, e := range f.Resources {
			if e.Name == "" || e.Type == "" {
				return nil, fmt.Errorf("staticdefs: %s: resource entry missing name or type", path)
			}
			delay, err := parseDelay(e.DefaultDelay)
			if err != nil {
				return nil, fmt.Errorf("staticdefs: %s: resource %s: %w", path, e.Name, err)
			}
			defs.ByType[e.Type] = append(defs.ByType[e.Type], types.Resource{
				Name:         e.Name,
				Type:         e.Type,
				Data:         e.Data,
				DefaultDelay: delay,
			})
		}
	}

	for t := range defs.ByType {
		sort.Slice(defs.ByType[t], func(i, j int) bool {
			return defs.ByType[t][i].Name < defs.ByType[t][j].Name
		})
	}

	return defs, nil
}

func parseDelay(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
