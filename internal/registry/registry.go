// Package registry loads the optional project-registry manifest that pins
// module names to output paths, template paths, identifiers, and categories
// when generation is manifest-driven instead of fully auto-discovered.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/studio-boxcat/unity-solution-generator/internal/asmdef"
)

// ErrInvalidRegistry indicates the registry file is missing or malformed.
// A requested registry that cannot be loaded is fatal.
var ErrInvalidRegistry = errors.New("invalid project registry")

// Entry pins descriptor settings for one module.
type Entry struct {
	Name     string `mapstructure:"name"`
	Output   string `mapstructure:"output"`
	Template string `mapstructure:"template"`
	GUID     string `mapstructure:"guid"`
	Category string `mapstructure:"category"`
}

// ParseCategory converts an entry's category string.
func (e Entry) ParseCategory() (asmdef.Category, error) {
	switch strings.ToLower(e.Category) {
	case "", "runtime":
		return asmdef.Runtime, nil
	case "editor":
		return asmdef.EditorOnly, nil
	case "test":
		return asmdef.Test, nil
	default:
		return asmdef.Runtime, fmt.Errorf("%w: unknown category %q for %s",
			ErrInvalidRegistry, e.Category, e.Name)
	}
}

// Registry is the loaded manifest, keyed by module name.
type Registry struct {
	Entries map[string]Entry
}

// Lookup returns the pinned entry for a module name, if any.
func (r *Registry) Lookup(name string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	e, ok := r.Entries[name]
	return e, ok
}

// Load reads a registry file. The file must exist, parse, and carry a
// non-empty name and output for every entry.
func Load(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRegistry, path, err)
	}

	var entries []Entry
	if err := v.UnmarshalKey("projects", &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRegistry, path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s: no projects listed", ErrInvalidRegistry, path)
	}

	reg := &Registry{Entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: %s: entry with empty name", ErrInvalidRegistry, path)
		}
		if e.Output == "" {
			return nil, fmt.Errorf("%w: %s: %s has no output path", ErrInvalidRegistry, path, e.Name)
		}
		if _, err := e.ParseCategory(); err != nil {
			return nil, err
		}
		if _, dup := reg.Entries[e.Name]; dup {
			return nil, fmt.Errorf("%w: %s: %s listed twice", ErrInvalidRegistry, path, e.Name)
		}
		reg.Entries[e.Name] = e
	}
	return reg, nil
}
