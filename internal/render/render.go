// Package render fills descriptor templates with computed compile patterns
// and reference lists, and writes results only when content changes.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/studio-boxcat/unity-solution-generator/internal/asmdef"
	"github.com/studio-boxcat/unity-solution-generator/internal/pattern"
)

// ErrMissingTemplate indicates a known project has no template on disk. This
// is a broken generator state, not a recoverable condition.
var ErrMissingTemplate = errors.New("missing template")

// Template placeholder vocabulary. Slots are literal tokens in the template
// files; each is replaced wholesale during rendering.
const (
	SlotSourceFolders     = "SOURCE_FOLDERS"
	SlotProjectReferences = "PROJECT_REFERENCES"
	SlotProjectRoot       = "PROJECT_ROOT"
	SlotProjectName       = "PROJECT_NAME"
	SlotProjectGUID       = "PROJECT_GUID"
	SlotDefineConstraints = "DEFINE_CONSTRAINTS"
	SlotSolutionProjects  = "SOLUTION_PROJECTS"
	SlotToolVersion       = "GENERATOR_VERSION"
)

// projectNamespace seeds the deterministic project guid derivation.
// Changing it invalidates every cross-reference in existing solutions.
var projectNamespace = uuid.MustParse("9df9a232-5a24-4ae4-92cd-91d8b02de3a5")

// ProjectGUID derives a stable identifier from an assembly name. Descriptors
// regenerate independently and in unspecified order, so cross-references must
// never depend on generation-time randomness.
func ProjectGUID(name string) string {
	return "{" + strings.ToUpper(uuid.NewMD5(projectNamespace, []byte(name)).String()) + "}"
}

// ProjectInfo describes one descriptor to render.
type ProjectInfo struct {
	Name         string
	OutputPath   string // absolute descriptor path
	TemplatePath string // absolute template path
	GUID         string // brace-wrapped, upper-case
	Category     asmdef.Category

	// DefineConstraints fill the DEFINE_CONSTRAINTS slot, joined with ";".
	DefineConstraints []string
}

// Renderer loads templates with caching and fills their slots.
type Renderer struct {
	root    string // substituted for PROJECT_ROOT
	version string // substituted for GENERATOR_VERSION
	cache   map[string]string
}

// NewRenderer creates a renderer. root and version fill the corresponding
// slots in every template.
func NewRenderer(root, version string) *Renderer {
	return &Renderer{root: root, version: version, cache: make(map[string]string)}
}

// Project renders one module descriptor from its template.
func (r *Renderer) Project(p ProjectInfo, patterns []pattern.CompilePattern, refs []ProjectInfo) ([]byte, error) {
	tmpl, err := r.load(p.TemplatePath)
	if err != nil {
		return nil, err
	}
	out := strings.NewReplacer(
		SlotSourceFolders, sourceFoldersBlock(patterns),
		SlotProjectReferences, referencesBlock(refs),
		SlotProjectName, p.Name,
		SlotProjectGUID, p.GUID,
		SlotDefineConstraints, strings.Join(p.DefineConstraints, ";"),
		SlotProjectRoot, r.root,
		SlotToolVersion, r.version,
	).Replace(tmpl)
	return []byte(out), nil
}

// Solution renders the solution-index descriptor listing every project.
func (r *Renderer) Solution(templatePath string, projects []ProjectInfo) ([]byte, error) {
	tmpl, err := r.load(templatePath)
	if err != nil {
		return nil, err
	}
	out := strings.NewReplacer(
		SlotSolutionProjects, solutionBlock(projects),
		SlotProjectRoot, r.root,
		SlotToolVersion, r.version,
	).Replace(tmpl)
	return []byte(out), nil
}

func (r *Renderer) load(path string) (string, error) {
	if tmpl, ok := r.cache[path]; ok {
		return tmpl, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrMissingTemplate, path)
		}
		return "", fmt.Errorf("reading template %s: %w", path, err)
	}
	r.cache[path] = string(data)
	return string(data), nil
}

func sourceFoldersBlock(patterns []pattern.CompilePattern) string {
	var b strings.Builder
	for _, p := range patterns {
		b.WriteString(`    <Compile Include="` + msbuildPath(p.Include) + `"`)
		if len(p.Excludes) > 0 {
			excl := make([]string, len(p.Excludes))
			for i, e := range p.Excludes {
				excl[i] = msbuildPath(e)
			}
			b.WriteString(` Exclude="` + strings.Join(excl, ";") + `"`)
		}
		b.WriteString(" />\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// referencesBlock emits one entry per resolved target, deduplicated by name.
func referencesBlock(refs []ProjectInfo) string {
	var b strings.Builder
	seen := make(map[string]bool)
	for _, ref := range refs {
		if seen[ref.Name] {
			continue
		}
		seen[ref.Name] = true
		b.WriteString(`    <ProjectReference Include="` + msbuildPath(relName(ref.OutputPath)) + `">` + "\n")
		b.WriteString("      <Project>" + ref.GUID + "</Project>\n")
		b.WriteString("      <Name>" + ref.Name + "</Name>\n")
		b.WriteString("    </ProjectReference>\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// csprojTypeGUID is the Visual Studio project-type id for C# projects,
// constant across all entries.
const csprojTypeGUID = "{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}"

func solutionBlock(projects []ProjectInfo) string {
	var b strings.Builder
	for _, p := range projects {
		fmt.Fprintf(&b, "Project(\"%s\") = \"%s\", \"%s\", \"%s\"\nEndProject\n",
			csprojTypeGUID, p.Name, msbuildPath(relName(p.OutputPath)), p.GUID)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// msbuildPath converts slash-separated engine paths to the backslash form
// descriptors use.
func msbuildPath(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

func relName(outputPath string) string {
	return filepath.Base(outputPath)
}

// Writer performs incremental descriptor writes: a file is rewritten only
// when its content would change, so a second run with no source changes
// produces zero writes.
type Writer struct {
	DryRun bool

	Written   int
	Unchanged int
}

// Write stores content at path unless the file already holds exactly that
// content. Reports whether a write happened (or would have, under DryRun).
func (w *Writer) Write(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		w.Unchanged++
		return false, nil
	}
	if !w.DryRun {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return false, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return false, fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Written++
	return true, nil
}
