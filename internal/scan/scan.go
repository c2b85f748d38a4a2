// Package scan discovers source files and assembly-definition records in a
// Unity project tree.
//
// Scanning is a single pass: the immediate children of each configured sub-root
// are listed serially, then every child directory is walked by its own worker
// into a private bucket. Buckets are merged after all workers finish, so no
// shared collection is ever written concurrently.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	sourceSuffix = ".cs"
	asmdefSuffix = ".asmdef"
	asmrefSuffix = ".asmref"
)

// Snapshot is the in-memory result of one scan. All paths are relative to Root
// and slash-separated. It is read-only after Scan returns.
type Snapshot struct {
	// Root is the absolute, symlink-resolved project root.
	Root string

	// SourceFiles maps a directory to the source files that are its direct
	// children. A directory appears here only if it directly contains at
	// least one source file.
	SourceFiles map[string][]string

	// Asmdefs and Asmrefs are the discovered declaration and
	// reference-extension file paths.
	Asmdefs []string
	Asmrefs []string

	// IgnoredDirs are the directories pruned by the ignore rules, recorded so
	// recursive compile patterns can exclude them explicitly.
	IgnoredDirs []string
}

// SourceDirs returns the directories that directly contain source, sorted.
func (s *Snapshot) SourceDirs() []string {
	dirs := make([]string, 0, len(s.SourceFiles))
	for dir := range s.SourceFiles {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Scanner walks configured sub-roots of a project tree.
type Scanner struct {
	root     string
	subRoots []string
}

// New creates a scanner over root, visiting only the given relative sub-roots
// (e.g. "Assets", "Packages"). Sub-roots that do not exist are skipped.
func New(root string, subRoots []string) *Scanner {
	return &Scanner{root: root, subRoots: subRoots}
}

// Scan produces a snapshot of the tree. Unreadable directories contribute
// nothing; this is not an error.
func (s *Scanner) Scan(ctx context.Context) (*Snapshot, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	// One bucket per worker plus one for the sub-roots' direct children.
	var buckets []*bucket
	top := newBucket()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, sub := range s.subRoots {
		subAbs := filepath.Join(root, sub)
		entries, err := os.ReadDir(subAbs)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if skipName(name) {
				if isDir(entry, filepath.Join(subAbs, name)) {
					top.ignored = append(top.ignored, joinRel(sub, name))
				}
				continue
			}
			childAbs := filepath.Join(subAbs, name)
			childRel := joinRel(sub, name)
			if isDir(entry, childAbs) {
				b := newBucket()
				buckets = append(buckets, b)
				g.Go(func() error {
					b.walk(ctx, childAbs, childRel)
					return nil
				})
			} else {
				top.classify(sub, name)
			}
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{Root: root, SourceFiles: make(map[string][]string)}
	top.mergeInto(snap)
	for _, b := range buckets {
		b.mergeInto(snap)
	}
	sort.Strings(snap.Asmdefs)
	sort.Strings(snap.Asmrefs)
	sort.Strings(snap.IgnoredDirs)
	for _, files := range snap.SourceFiles {
		sort.Strings(files)
	}
	return snap, nil
}

// skipName reports whether an entry is hidden by convention: dot-prefixed
// names and tilde-suffixed names (editor backups, Unity hidden folders).
func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}

// isDir resolves the entry type, falling back to stat for symlinks and other
// irregular entries.
func isDir(entry fs.DirEntry, abs string) bool {
	if entry.Type()&fs.ModeSymlink == 0 && entry.Type()&fs.ModeIrregular == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(abs)
	return err == nil && info.IsDir()
}

// bucket is a worker-private scan result. It is owned exclusively by one
// worker until mergeInto is called after the join.
type bucket struct {
	sourceFiles map[string][]string
	asmdefs     []string
	asmrefs     []string
	ignored     []string
}

func newBucket() *bucket {
	return &bucket{sourceFiles: make(map[string][]string)}
}

func (b *bucket) classify(dir, name string) {
	rel := joinRel(dir, name)
	switch {
	case strings.HasSuffix(name, sourceSuffix):
		b.sourceFiles[dir] = append(b.sourceFiles[dir], rel)
	case strings.HasSuffix(name, asmdefSuffix):
		b.asmdefs = append(b.asmdefs, rel)
	case strings.HasSuffix(name, asmrefSuffix):
		b.asmrefs = append(b.asmrefs, rel)
	}
}

// walk traverses one subtree rooted at abs (relative name rel). Read errors
// are swallowed: a directory that cannot be opened contributes nothing.
func (b *bucket) walk(ctx context.Context, abs, rel string) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		name := entry.Name()
		childAbs := filepath.Join(abs, name)
		if skipName(name) {
			if isDir(entry, childAbs) {
				b.ignored = append(b.ignored, joinRel(rel, name))
			}
			continue
		}
		if isDir(entry, childAbs) {
			b.walk(ctx, childAbs, joinRel(rel, name))
		} else {
			b.classify(rel, name)
		}
	}
}

func (b *bucket) mergeInto(snap *Snapshot) {
	for dir, files := range b.sourceFiles {
		snap.SourceFiles[dir] = append(snap.SourceFiles[dir], files...)
	}
	snap.Asmdefs = append(snap.Asmdefs, b.asmdefs...)
	snap.Asmrefs = append(snap.Asmrefs, b.asmrefs...)
	snap.IgnoredDirs = append(snap.IgnoredDirs, b.ignored...)
}

// joinRel joins relative snapshot paths. Snapshot paths are always
// slash-separated regardless of platform.
func joinRel(elems ...string) string {
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, "/")
}
