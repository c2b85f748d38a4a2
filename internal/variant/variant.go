// Package variant derives filtered, define-rewritten descriptor copies for a
// target platform and build configuration.
//
// The only state carried across invocations is the filesystem: a variant copy
// whose modification time is not older than its source descriptor is fresh
// and skipped. There is no persisted database; mtime is the cache index.
package variant

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/studio-boxcat/unity-solution-generator/internal/asmdef"
	"github.com/studio-boxcat/unity-solution-generator/internal/render"
)

// Build configurations. ConfigEditor is all-inclusive: no module is filtered
// out and editor defines survive.
const (
	ConfigEditor  = "editor"
	ConfigDev     = "dev"
	ConfigRelease = "release"
)

// VariantsDir is the subdirectory, next to the source descriptors, that
// receives variant copies and the defines props file.
const VariantsDir = "Variants"

// Options select the variant to prepare.
type Options struct {
	Platform string // target platform name, e.g. "iOS"
	Config   string // ConfigEditor, ConfigDev or ConfigRelease
	Debug    bool   // keep DEBUG/TRACE tokens outside the editor config
}

// Suffix is the variant-specific name component, e.g. "iOS.dev".
func (o Options) Suffix() string {
	return o.Platform + "." + o.Config
}

func (o Options) platformToken() string {
	return "UNITY_" + strings.ToUpper(o.Platform)
}

// platformTokens are the define tokens subject to the platform swap.
var platformTokens = map[string]bool{
	"UNITY_STANDALONE":       true,
	"UNITY_STANDALONE_WIN":   true,
	"UNITY_STANDALONE_OSX":   true,
	"UNITY_STANDALONE_LINUX": true,
	"UNITY_IOS":              true,
	"UNITY_ANDROID":          true,
	"UNITY_WEBGL":            true,
	"UNITY_TVOS":             true,
}

// Result reports what one prepare pass did.
type Result struct {
	Generated []string
	Skipped   []string
}

// Prepare derives variant copies for every surviving project. modules supplies
// the declared platform restrictions; projects for the predefined assemblies
// have no record and are never platform-restricted.
func Prepare(projects []render.ProjectInfo, modules map[string]*asmdef.ModuleRecord, opts Options) (*Result, error) {
	survivors := filter(projects, modules, opts)
	names := make(map[string]bool, len(survivors))
	for _, p := range survivors {
		names[p.Name] = true
	}

	res := &Result{}
	for _, p := range survivors {
		dst := variantPath(p, opts)
		if fresh(dst, p.OutputPath) {
			res.Skipped = append(res.Skipped, dst)
			continue
		}
		src, err := os.ReadFile(p.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p.OutputPath, err)
		}
		out := rewriteReferences(string(src), names, opts)
		out = rewriteDefineLines(out, opts)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", dst, err)
		}
		res.Generated = append(res.Generated, dst)
	}

	if len(survivors) > 0 {
		propsPath := filepath.Join(filepath.Dir(survivors[0].OutputPath), VariantsDir,
			opts.Suffix()+".props")
		content := []byte(propsFile(opts))
		if existing, err := os.ReadFile(propsPath); err != nil || !bytes.Equal(existing, content) {
			if err := os.MkdirAll(filepath.Dir(propsPath), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(propsPath, content, 0o644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", propsPath, err)
			}
		}
	}
	return res, nil
}

// filter drops modules whose category or platform restriction excludes them
// from this variant. The editor configuration keeps everything.
func filter(projects []render.ProjectInfo, modules map[string]*asmdef.ModuleRecord, opts Options) []render.ProjectInfo {
	if opts.Config == ConfigEditor {
		return projects
	}
	var out []render.ProjectInfo
	for _, p := range projects {
		if p.Category != asmdef.Runtime {
			continue
		}
		if m, ok := modules[p.Name]; ok && m.RestrictedTo(opts.Platform) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func variantPath(p render.ProjectInfo, opts Options) string {
	dir := filepath.Dir(p.OutputPath)
	return filepath.Join(dir, VariantsDir, p.Name+"."+opts.Suffix()+".csproj")
}

// fresh reports whether the variant copy is not older than its source.
func fresh(copyPath, sourcePath string) bool {
	ci, err := os.Stat(copyPath)
	if err != nil {
		return false
	}
	si, err := os.Stat(sourcePath)
	if err != nil {
		return false
	}
	return !ci.ModTime().Before(si.ModTime())
}

// rewriteDefineLines rewrites every DefineConstants token list in the
// descriptor text: editor-only tokens are removed, DEBUG/TRACE are removed
// unless the debug flag is set, and platform tokens are swapped for the
// target's.
func rewriteDefineLines(text string, opts Options) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		open := strings.Index(line, "<DefineConstants>")
		end := strings.Index(line, "</DefineConstants>")
		if open < 0 || end < 0 {
			continue
		}
		start := open + len("<DefineConstants>")
		tokens := strings.Split(line[start:end], ";")
		lines[i] = line[:start] + strings.Join(rewriteTokens(tokens, opts), ";") + line[end:]
	}
	return strings.Join(lines, "\n")
}

func rewriteTokens(tokens []string, opts Options) []string {
	var out []string
	seen := make(map[string]bool)
	keep := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		switch {
		case t == "UNITY_EDITOR":
			if opts.Config == ConfigEditor {
				keep(t)
			}
		case t == "DEBUG" || t == "TRACE":
			if opts.Debug || opts.Config == ConfigEditor {
				keep(t)
			}
		case platformTokens[t]:
			keep(opts.platformToken())
		default:
			keep(t)
		}
	}
	return out
}

// rewriteReferences removes ProjectReference blocks whose target does not
// survive this variant and redirects the rest at the variant copies.
func rewriteReferences(text string, survivors map[string]bool, opts Options) string {
	lines := strings.Split(text, "\n")
	var out []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		name, ok := referenceTarget(line)
		if !ok {
			out = append(out, line)
			continue
		}
		end := i
		for end < len(lines) && !strings.Contains(lines[end], "</ProjectReference>") {
			end++
		}
		if !survivors[name] {
			i = end
			continue
		}
		for j := i; j <= end && j < len(lines); j++ {
			out = append(out, rewriteReferenceLine(lines[j], name, opts))
		}
		i = end
	}
	return strings.Join(out, "\n")
}

// referenceTarget extracts the referenced project name from a
// `<ProjectReference Include="...Name.csproj">` line.
func referenceTarget(line string) (string, bool) {
	idx := strings.Index(line, "<ProjectReference Include=\"")
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len("<ProjectReference Include=\""):]
	quote := strings.IndexByte(rest, '"')
	if quote < 0 {
		return "", false
	}
	include := rest[:quote]
	base := include
	if i := strings.LastIndexAny(base, `\/`); i >= 0 {
		base = base[i+1:]
	}
	name, found := strings.CutSuffix(base, ".csproj")
	return name, found
}

func rewriteReferenceLine(line, name string, opts Options) string {
	// Survivor copies are siblings in the same Variants directory, so the
	// rewritten reference is a bare file name.
	variantInclude := name + "." + opts.Suffix() + ".csproj"
	if strings.Contains(line, "<ProjectReference Include=\"") {
		idx := strings.Index(line, "Include=\"")
		rest := line[idx+len("Include=\""):]
		quote := strings.IndexByte(rest, '"')
		return line[:idx] + "Include=\"" + variantInclude + line[idx+len("Include=\"")+quote:]
	}
	if strings.Contains(line, "<Name>") {
		return strings.Replace(line, "<Name>"+name+"</Name>",
			"<Name>"+name+"."+opts.Suffix()+"</Name>", 1)
	}
	if strings.Contains(line, "<Project>") {
		// Variant copies keep their source's deterministic guid.
		return line
	}
	return line
}

// propsFile renders the auxiliary properties file carrying the variant's
// define tokens.
func propsFile(opts Options) string {
	tokens := []string{opts.platformToken()}
	if opts.Config == ConfigEditor {
		tokens = append(tokens, "UNITY_EDITOR")
	}
	if opts.Config == ConfigDev {
		tokens = append(tokens, "DEVELOPMENT_BUILD")
	}
	if opts.Debug || opts.Config == ConfigEditor {
		tokens = append(tokens, "DEBUG", "TRACE")
	}
	return `<?xml version="1.0" encoding="utf-8"?>
<Project xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <PropertyGroup>
    <DefineConstants>` + strings.Join(tokens, ";") + `</DefineConstants>
  </PropertyGroup>
</Project>
`
}
