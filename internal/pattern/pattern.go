// Package pattern converts per-assembly file sets into minimal glob rules for
// descriptor compile blocks.
package pattern

import (
	"sort"
	"strings"
)

const sourceGlob = "*.cs"

// CompilePattern is one include glob with ordered exclusion sub-globs.
// Excludes are always lexical descendants of (or equal to) the include's
// directory.
type CompilePattern struct {
	Include  string
	Excludes []string
}

// Flat emits one non-recursive glob per owned directory, sorted by path.
// This is the default mode: ownership is computed per immediate directory, so
// nothing nested needs excluding.
func Flat(dirs []string) []CompilePattern {
	sorted := append([]string(nil), dirs...)
	sort.Strings(sorted)
	patterns := make([]CompilePattern, 0, len(sorted))
	for _, dir := range sorted {
		patterns = append(patterns, CompilePattern{Include: dir + "/" + sourceGlob})
	}
	return patterns
}

// Files emits one pattern per explicitly owned file, sorted. Used for the
// predefined assemblies, which own individual files instead of directories.
func Files(files []string) []CompilePattern {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	patterns := make([]CompilePattern, 0, len(sorted))
	for _, f := range sorted {
		patterns = append(patterns, CompilePattern{Include: f})
	}
	return patterns
}

// Recursive collapses owned directories into their minimal top-level roots
// and emits one recursive glob per root. Directories owned by other
// assemblies and ignored directories that fall under a root become exclusion
// sub-globs, so a parent assembly's recursive include never swallows a nested
// assembly's files.
func Recursive(dirs, foreign, ignored []string) []CompilePattern {
	roots := minimalRoots(dirs)
	patterns := make([]CompilePattern, 0, len(roots))
	for _, root := range roots {
		p := CompilePattern{Include: root + "/**/" + sourceGlob}
		seen := make(map[string]bool)
		for _, other := range foreign {
			addExclude(&p, seen, root, other)
		}
		for _, ign := range ignored {
			addExclude(&p, seen, root, ign)
		}
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].Include < patterns[j].Include
	})
	return patterns
}

// addExclude appends dir as an exclusion if it is under (or equal to) root,
// deduplicating while preserving first-seen order.
func addExclude(p *CompilePattern, seen map[string]bool, root, dir string) {
	if dir != root && !isUnder(root, dir) {
		return
	}
	glob := dir + "/**/" + sourceGlob
	if seen[glob] {
		return
	}
	seen[glob] = true
	p.Excludes = append(p.Excludes, glob)
}

// minimalRoots drops every directory that is a descendant of another owned
// directory, returning the surviving roots sorted.
func minimalRoots(dirs []string) []string {
	sorted := append([]string(nil), dirs...)
	sort.Strings(sorted)
	var roots []string
	for _, dir := range sorted {
		if len(roots) > 0 && isUnder(roots[len(roots)-1], dir) {
			continue
		}
		roots = append(roots, dir)
	}
	return roots
}

func isUnder(ancestor, dir string) bool {
	return strings.HasPrefix(dir, ancestor+"/")
}
