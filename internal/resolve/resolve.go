// Package resolve maps every source-bearing directory to the assembly that
// compiles it.
//
// Resolution order for a directory: nearest declaration or bound extension
// ancestor first, then the legacy predefined-assembly rules under Assets,
// then unresolved.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/studio-boxcat/unity-solution-generator/internal/asmdef"
	"github.com/studio-boxcat/unity-solution-generator/internal/scan"
)

// ErrDuplicateModule indicates two declarations share one assembly name.
// This aborts generation before anything is written.
var ErrDuplicateModule = errors.New("duplicate assembly name")

// LegacyRoot is the top-level source root the legacy fallback applies under.
const LegacyRoot = "Assets"

// The four predefined assemblies, keyed by (firstpass, editor).
const (
	LegacyMain            = "Assembly-CSharp"
	LegacyEditor          = "Assembly-CSharp-Editor"
	LegacyFirstPass       = "Assembly-CSharp-firstpass"
	LegacyEditorFirstPass = "Assembly-CSharp-Editor-firstpass"
)

// firstPassDirs are the directory names that, at the second path level under
// Assets, route source into the firstpass assemblies.
var firstPassDirs = map[string]bool{
	"Standard Assets":     true,
	"Pro Standard Assets": true,
	"Plugins":             true,
}

// Ownership is the read-only directory→assembly mapping built from one scan.
// The memoization cache makes it single-goroutine only.
type Ownership struct {
	byDir  map[string]string
	byName map[string]*asmdef.ModuleRecord
	byGUID map[string]*asmdef.ModuleRecord

	// cache memoizes nearest-ancestor walks; "" records a miss.
	cache map[string]string

	warnings []string
}

// Build constructs the ownership map from declaration and extension records.
// Duplicate assembly names are fatal. Extensions that cannot be resolved, or
// that target a directory already claimed by a declaration, are dropped.
func Build(modules []*asmdef.ModuleRecord, exts []*asmdef.ExtensionRecord) (*Ownership, error) {
	o := &Ownership{
		byDir:  make(map[string]string, len(modules)+len(exts)),
		byName: make(map[string]*asmdef.ModuleRecord, len(modules)),
		byGUID: make(map[string]*asmdef.ModuleRecord, len(modules)),
		cache:  make(map[string]string),
	}

	for _, m := range modules {
		if prev, ok := o.byName[m.Name]; ok {
			return nil, fmt.Errorf("%w: %q declared in %s and %s",
				ErrDuplicateModule, m.Name, prev.Directory, m.Directory)
		}
		o.byName[m.Name] = m
		if m.GUID != "" {
			o.byGUID[m.GUID] = m
		}
		o.byDir[m.Directory] = m.Name
	}

	for _, ext := range exts {
		target, ok := o.ResolveToken(ext.Reference)
		if !ok {
			continue
		}
		if owner, claimed := o.byDir[ext.Directory]; claimed {
			o.warnings = append(o.warnings, fmt.Sprintf(
				"%s: reference extension ignored, directory already owned by %s",
				ext.Directory, owner))
			continue
		}
		o.byDir[ext.Directory] = target.Name
	}

	return o, nil
}

// Module returns the declaration record for an assembly name.
func (o *Ownership) Module(name string) (*asmdef.ModuleRecord, bool) {
	m, ok := o.byName[name]
	return m, ok
}

// Modules returns all declaration records, keyed by name.
func (o *Ownership) Modules() map[string]*asmdef.ModuleRecord {
	return o.byName
}

// OwnedDirs returns every directory bound to the named assembly, via its
// declaration or an extension.
func (o *Ownership) OwnedDirs(name string) []string {
	var dirs []string
	for dir, owner := range o.byDir {
		if owner == name {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// ResolveToken resolves a raw reference token to a module: exact name match
// first, then guid lookup for "GUID:"-prefixed or bare 32-hex tokens.
func (o *Ownership) ResolveToken(token string) (*asmdef.ModuleRecord, bool) {
	if m, ok := o.byName[token]; ok {
		return m, true
	}
	if asmdef.IsGUIDToken(token) {
		m, ok := o.byGUID[asmdef.NormalizeGUIDToken(token)]
		return m, ok
	}
	return nil, false
}

// OwnerOf resolves a directory to its owning assembly by walking toward the
// root. Every directory touched during the walk is memoized with the final
// result, so sibling lookups are O(1) once a common ancestor is warm.
func (o *Ownership) OwnerOf(dir string) (string, bool) {
	if owner, ok := o.cache[dir]; ok {
		return owner, owner != ""
	}

	var visited []string
	cur := dir
	owner := ""
	for {
		if cached, ok := o.cache[cur]; ok {
			owner = cached
			break
		}
		visited = append(visited, cur)
		if name, ok := o.byDir[cur]; ok {
			owner = name
			break
		}
		if cur == "" {
			break
		}
		cur = parentDir(cur)
	}

	for _, v := range visited {
		o.cache[v] = owner
	}
	return owner, owner != ""
}

// LegacyOwner classifies a directory under the legacy root into one of the
// four predefined assemblies. Directories outside the root stay unresolved.
func LegacyOwner(dir string) (string, bool) {
	segs := strings.Split(dir, "/")
	if segs[0] != LegacyRoot {
		return "", false
	}
	firstpass := len(segs) > 1 && firstPassDirs[segs[1]]
	editor := false
	for _, s := range segs[1:] {
		if s == "Editor" {
			editor = true
			break
		}
	}
	switch {
	case firstpass && editor:
		return LegacyEditorFirstPass, true
	case firstpass:
		return LegacyFirstPass, true
	case editor:
		return LegacyEditor, true
	default:
		return LegacyMain, true
	}
}

// Assignment is the result of resolving every source directory in a snapshot.
type Assignment struct {
	// DirsByModule lists the source directories each declared assembly
	// compiles.
	DirsByModule map[string][]string

	// FilesByModule lists individual source files for the legacy predefined
	// assemblies, which own files rather than whole directories.
	FilesByModule map[string][]string

	// Unresolved are source directories no assembly claims. Their files are
	// omitted from every compile set.
	Unresolved []string
}

// AssignSources resolves every source-bearing directory of the snapshot.
// The result is deterministic for a fixed snapshot.
func (o *Ownership) AssignSources(snap *scan.Snapshot) *Assignment {
	a := &Assignment{
		DirsByModule:  make(map[string][]string),
		FilesByModule: make(map[string][]string),
	}
	for _, dir := range snap.SourceDirs() {
		if owner, ok := o.OwnerOf(dir); ok {
			a.DirsByModule[owner] = append(a.DirsByModule[owner], dir)
			continue
		}
		if owner, ok := LegacyOwner(dir); ok {
			a.FilesByModule[owner] = append(a.FilesByModule[owner], snap.SourceFiles[dir]...)
			continue
		}
		a.Unresolved = append(a.Unresolved, dir)
	}
	return a
}

// Warnings returns soft conditions observed while building the map.
func (o *Ownership) Warnings() []string {
	return o.warnings
}

func parentDir(dir string) string {
	if i := strings.LastIndexByte(dir, '/'); i >= 0 {
		return dir[:i]
	}
	return ""
}
