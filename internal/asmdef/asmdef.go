// Package asmdef loads assembly-definition (.asmdef) and assembly-reference
// (.asmref) records from a scan snapshot.
//
// Parsing is extraction-only: it pulls the fields ownership resolution needs
// and tolerates everything else. Full asmdef validation belongs to the editor,
// not this tool.
package asmdef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GUIDPrefix marks a reference token that names a module by guid instead of
// by name, e.g. "GUID:2bafac87e7f4b9b418d9448d219b01ab".
const GUIDPrefix = "GUID:"

// guidLen is the length of a bare Unity guid token (32 hex chars).
const guidLen = 32

// Category classifies a module by when its code is compiled.
type Category int

const (
	Runtime Category = iota
	EditorOnly
	Test
)

func (c Category) String() string {
	switch c {
	case EditorOnly:
		return "editor"
	case Test:
		return "test"
	default:
		return "runtime"
	}
}

// ModuleRecord is one parsed .asmdef. Identity is Name; records are immutable
// after loading.
type ModuleRecord struct {
	Name string

	// Directory is the snapshot-relative directory containing the .asmdef.
	// It is the module's ownership root.
	Directory string

	// References holds the raw reference tokens in declaration order: bare
	// module names, bare guids, or "GUID:"-prefixed guids.
	References []string

	// IncludedPlatforms restricts the module to the named platforms.
	// Empty means unrestricted.
	IncludedPlatforms []string

	// DefineConstraints are the declared define-style constraints, kept in
	// declaration order for descriptor rendering.
	DefineConstraints []string

	Category Category

	// GUID is the lowercase guid from the .asmdef's .meta side-car, empty if
	// the side-car is missing or carries none.
	GUID string
}

// RestrictedTo reports whether the module excludes the given platform.
func (m *ModuleRecord) RestrictedTo(platform string) bool {
	if len(m.IncludedPlatforms) == 0 {
		return false
	}
	for _, p := range m.IncludedPlatforms {
		if strings.EqualFold(p, platform) {
			return false
		}
	}
	return true
}

// ExtensionRecord is one parsed .asmref: it extends an existing module's
// ownership into Directory without declaring a new module.
type ExtensionRecord struct {
	Directory string
	Reference string
}

// asmdefFile mirrors the on-disk JSON shape. Only ownership-relevant fields
// are decoded.
type asmdefFile struct {
	Name              string   `json:"name"`
	References        []string `json:"references"`
	IncludePlatforms  []string `json:"includePlatforms"`
	DefineConstraints []string `json:"defineConstraints"`
}

type asmrefFile struct {
	Reference string `json:"reference"`
}

type metaFile struct {
	GUID string `yaml:"guid"`
}

// LoadModules parses every .asmdef path (relative to root) into a
// ModuleRecord. A declaration that cannot be read or decoded is a hard error:
// generation must not proceed from a partially loaded module set.
func LoadModules(root string, relPaths []string) ([]*ModuleRecord, error) {
	records := make([]*ModuleRecord, 0, len(relPaths))
	for _, rel := range relPaths {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		var f asmdefFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", rel, err)
		}
		if f.Name == "" {
			return nil, fmt.Errorf("parsing %s: missing assembly name", rel)
		}
		records = append(records, &ModuleRecord{
			Name:              f.Name,
			Directory:         dirOf(rel),
			References:        f.References,
			IncludedPlatforms: platformsOf(f),
			DefineConstraints: f.DefineConstraints,
			Category:          categoryOf(f),
			GUID:              loadGUID(abs),
		})
	}
	return records, nil
}

// LoadExtensions parses every .asmref path. Unreadable or malformed extension
// files are dropped: orphaned .asmref files are common mid-refactor and must
// not block generation.
func LoadExtensions(root string, relPaths []string) []*ExtensionRecord {
	records := make([]*ExtensionRecord, 0, len(relPaths))
	for _, rel := range relPaths {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		var f asmrefFile
		if err := json.Unmarshal(data, &f); err != nil || f.Reference == "" {
			continue
		}
		records = append(records, &ExtensionRecord{
			Directory: dirOf(rel),
			Reference: f.Reference,
		})
	}
	return records
}

// IsGUIDToken reports whether a raw reference token addresses a module by
// guid, either "GUID:"-prefixed or as a bare 32-hex string.
func IsGUIDToken(token string) bool {
	if strings.HasPrefix(token, GUIDPrefix) {
		return true
	}
	if len(token) != guidLen {
		return false
	}
	for _, r := range token {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}

// NormalizeGUIDToken strips the prefix and lowercases a guid token.
func NormalizeGUIDToken(token string) string {
	return strings.ToLower(strings.TrimPrefix(token, GUIDPrefix))
}

func categoryOf(f asmdefFile) Category {
	for _, d := range f.DefineConstraints {
		if d == "UNITY_INCLUDE_TESTS" {
			return Test
		}
	}
	if len(f.IncludePlatforms) == 1 && f.IncludePlatforms[0] == "Editor" {
		return EditorOnly
	}
	return Runtime
}

// platformsOf returns the declared platform restriction, with the Editor
// pseudo-platform stripped (editor inclusion is captured by the category).
func platformsOf(f asmdefFile) []string {
	var out []string
	for _, p := range f.IncludePlatforms {
		if p != "Editor" {
			out = append(out, p)
		}
	}
	return out
}

// loadGUID reads the guid from the .meta side-car next to an asmdef.
// A missing or unparsable side-car yields an empty guid, not an error.
func loadGUID(asmdefAbs string) string {
	data, err := os.ReadFile(asmdefAbs + ".meta")
	if err != nil {
		return ""
	}
	var m metaFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ""
	}
	return strings.ToLower(m.GUID)
}

func dirOf(rel string) string {
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}
