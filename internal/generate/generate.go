// Package generate drives the pipeline: scan, resolve ownership, synthesize
// compile patterns, render descriptors, write incrementally.
//
// Rendering and writing are separate phases. Every descriptor is rendered
// before the first write, so a fatal condition (duplicate assembly, missing
// template) aborts the run with nothing on disk touched.
package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/studio-boxcat/unity-solution-generator/internal/asmdef"
	"github.com/studio-boxcat/unity-solution-generator/internal/config"
	"github.com/studio-boxcat/unity-solution-generator/internal/pattern"
	"github.com/studio-boxcat/unity-solution-generator/internal/registry"
	"github.com/studio-boxcat/unity-solution-generator/internal/render"
	"github.com/studio-boxcat/unity-solution-generator/internal/resolve"
	"github.com/studio-boxcat/unity-solution-generator/internal/scan"
)

// ErrNoModules indicates the scan found no assembly definitions at all.
var ErrNoModules = errors.New("no assembly definitions found")

// Options tune one generation run.
type Options struct {
	DryRun bool
}

// Result summarizes a completed run.
type Result struct {
	Projects  []render.ProjectInfo
	Written   int
	Unchanged int

	// Warnings are soft conditions: unresolved source directories, ignored
	// reference extensions. They never affect the exit code.
	Warnings []string

	// UnresolvedDirs are source directories omitted from every compile set.
	UnresolvedDirs []string
}

// Plan is the resolved state of one scan, shared by generation and variant
// preparation.
type Plan struct {
	Snapshot   *scan.Snapshot
	Ownership  *resolve.Ownership
	Assignment *resolve.Assignment
	Projects   []render.ProjectInfo
}

// BuildPlan scans the tree and resolves ownership without touching any
// descriptor.
func BuildPlan(ctx context.Context, cfg *config.Config) (*Plan, error) {
	snap, err := scan.New(cfg.Root, cfg.SubRoots).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", cfg.Root, err)
	}

	modules, err := asmdef.LoadModules(snap.Root, snap.Asmdefs)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoModules, cfg.Root)
	}
	exts := asmdef.LoadExtensions(snap.Root, snap.Asmrefs)

	own, err := resolve.Build(modules, exts)
	if err != nil {
		return nil, err
	}
	assignment := own.AssignSources(snap)

	var reg *registry.Registry
	if path := cfg.RegistryAbs(); path != "" {
		if reg, err = registry.Load(path); err != nil {
			return nil, err
		}
	}

	projects, err := projectList(cfg, own, assignment, reg)
	if err != nil {
		return nil, err
	}
	return &Plan{Snapshot: snap, Ownership: own, Assignment: assignment, Projects: projects}, nil
}

// Run executes one full generation over cfg.Root.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	plan, err := BuildPlan(ctx, cfg)
	if err != nil {
		return nil, err
	}
	snap, own, assignment, projects := plan.Snapshot, plan.Ownership, plan.Assignment, plan.Projects

	// Phase 1: render everything.
	renderer := render.NewRenderer(snap.Root, config.Version)
	byName := make(map[string]render.ProjectInfo, len(projects))
	for _, p := range projects {
		byName[p.Name] = p
	}
	contents := make([][]byte, len(projects))
	for i, p := range projects {
		patterns := projectPatterns(cfg, p.Name, own, assignment, snap)
		refs := projectRefs(p.Name, own, byName)
		if contents[i], err = renderer.Project(p, patterns, refs); err != nil {
			return nil, err
		}
	}
	solutionTmpl := filepath.Join(cfg.TemplatesPath(), cfg.SolutionName+".sln.template")
	solution, err := renderer.Solution(solutionTmpl, projects)
	if err != nil {
		return nil, err
	}

	// Phase 2: write incrementally.
	writer := &render.Writer{DryRun: opts.DryRun}
	for i, p := range projects {
		if _, err := writer.Write(p.OutputPath, contents[i]); err != nil {
			return nil, err
		}
	}
	solutionOut := filepath.Join(cfg.OutputPath(), cfg.SolutionName+".sln")
	if _, err := writer.Write(solutionOut, solution); err != nil {
		return nil, err
	}

	res := &Result{
		Projects:       projects,
		Written:        writer.Written,
		Unchanged:      writer.Unchanged,
		Warnings:       own.Warnings(),
		UnresolvedDirs: assignment.Unresolved,
	}
	if n := len(assignment.Unresolved); n > 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d source directories resolve to no assembly", n))
	}
	return res, nil
}

// projectList builds the descriptor set: every declared assembly plus each
// predefined assembly that ended up owning files, sorted by name.
func projectList(cfg *config.Config, own *resolve.Ownership, a *resolve.Assignment, reg *registry.Registry) ([]render.ProjectInfo, error) {
	var projects []render.ProjectInfo
	for name, m := range own.Modules() {
		p, err := projectInfo(cfg, name, m.Category, m.DefineConstraints, reg)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	for name := range a.FilesByModule {
		cat := asmdef.Runtime
		if strings.Contains(name, "-Editor") {
			cat = asmdef.EditorOnly
		}
		p, err := projectInfo(cfg, name, cat, nil, reg)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

func projectInfo(cfg *config.Config, name string, cat asmdef.Category, defines []string, reg *registry.Registry) (render.ProjectInfo, error) {
	p := render.ProjectInfo{
		Name:              name,
		OutputPath:        filepath.Join(cfg.OutputPath(), name+".csproj"),
		TemplatePath:      filepath.Join(cfg.TemplatesPath(), name+".csproj.template"),
		GUID:              render.ProjectGUID(name),
		Category:          cat,
		DefineConstraints: defines,
	}
	if entry, ok := reg.Lookup(name); ok {
		p.OutputPath = absUnder(cfg.Root, entry.Output)
		if entry.Template != "" {
			p.TemplatePath = absUnder(cfg.Root, entry.Template)
		}
		if entry.GUID != "" {
			p.GUID = "{" + strings.ToUpper(entry.GUID) + "}"
		}
		if c, err := entry.ParseCategory(); err == nil && entry.Category != "" {
			p.Category = c
		}
	}
	return p, nil
}

// projectPatterns synthesizes the compile block for one assembly.
func projectPatterns(cfg *config.Config, name string, own *resolve.Ownership, a *resolve.Assignment, snap *scan.Snapshot) []pattern.CompilePattern {
	if files, legacy := a.FilesByModule[name]; legacy {
		return pattern.Files(files)
	}
	if !cfg.Recursive {
		return pattern.Flat(a.DirsByModule[name])
	}
	// Recursive includes start at the ownership roots; nested foreign roots
	// become excludes so the parent's glob never swallows them.
	var foreign []string
	for other := range own.Modules() {
		if other != name {
			foreign = append(foreign, own.OwnedDirs(other)...)
		}
	}
	sort.Strings(foreign)
	return pattern.Recursive(own.OwnedDirs(name), foreign, snap.IgnoredDirs)
}

// projectRefs resolves an assembly's raw reference tokens to existing target
// projects, in declaration order.
func projectRefs(name string, own *resolve.Ownership, byName map[string]render.ProjectInfo) []render.ProjectInfo {
	m, ok := own.Module(name)
	if !ok {
		return nil
	}
	var refs []render.ProjectInfo
	for _, token := range m.References {
		target, ok := own.ResolveToken(token)
		if !ok {
			continue
		}
		if p, exists := byName[target.Name]; exists {
			refs = append(refs, p)
		}
	}
	return refs
}

func absUnder(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
