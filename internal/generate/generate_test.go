package generate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio-boxcat/unity-solution-generator/internal/config"
	"github.com/studio-boxcat/unity-solution-generator/internal/render"
	"github.com/studio-boxcat/unity-solution-generator/internal/resolve"
)

const projectTemplate = `<Project>
  <Name>PROJECT_NAME</Name>
  <Guid>PROJECT_GUID</Guid>
  <DefineConstants>DEFINE_CONSTRAINTS</DefineConstants>
  <ItemGroup>
SOURCE_FOLDERS
  </ItemGroup>
  <ItemGroup>
PROJECT_REFERENCES
  </ItemGroup>
</Project>
`

const solutionTemplate = `Microsoft Visual Studio Solution File, Format Version 12.00
SOLUTION_PROJECTS
Global
EndGlobal
`

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

// fixtureProject lays out a tree with two declared assemblies, one legacy
// directory, and templates for everything.
func fixtureProject(t *testing.T) *config.Config {
	root := t.TempDir()
	write(t, root, "Assets/Game/Game.asmdef",
		`{"name": "Game", "references": ["Core", "Absent"], "defineConstraints": ["GAME_DEBUG_TOOLS"]}`)
	write(t, root, "Assets/Game/Foo.cs", "class Foo {}")
	write(t, root, "Assets/Game/Core/Core.asmdef", `{"name": "Core"}`)
	write(t, root, "Assets/Game/Core/Bar.cs", "class Bar {}")
	write(t, root, "Assets/Loose/Baz.cs", "class Baz {}")

	for _, name := range []string{"Game", "Core", resolve.LegacyMain} {
		write(t, root, "ProjectTemplates/"+name+".csproj.template", projectTemplate)
	}
	write(t, root, "ProjectTemplates/Solution.sln.template", solutionTemplate)

	cfg, err := config.Load(root)
	require.NoError(t, err)
	return cfg
}

func TestRunGeneratesDescriptors(t *testing.T) {
	cfg := fixtureProject(t)
	res, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)

	assert.Len(t, res.Projects, 3)
	assert.Equal(t, 4, res.Written) // three projects + solution
	assert.Equal(t, 0, res.Unchanged)

	game, err := os.ReadFile(filepath.Join(cfg.Root, "Game.csproj"))
	require.NoError(t, err)
	text := string(game)

	// Directory-exact ownership: Game compiles Assets/Game, not Core's dir.
	assert.Contains(t, text, `<Compile Include="Assets\Game\*.cs" />`)
	assert.NotContains(t, text, `Assets\Game\Core`)

	// Declared define constraints land in the descriptor.
	assert.Contains(t, text, "<DefineConstants>GAME_DEBUG_TOOLS</DefineConstants>")

	// Resolved reference present, unresolvable token dropped.
	assert.Contains(t, text, "<Name>Core</Name>")
	assert.NotContains(t, text, "Absent")
	assert.Contains(t, text, render.ProjectGUID("Core"))

	core, err := os.ReadFile(filepath.Join(cfg.Root, "Core.csproj"))
	require.NoError(t, err)
	assert.Contains(t, string(core), `<Compile Include="Assets\Game\Core\*.cs" />`)

	legacy, err := os.ReadFile(filepath.Join(cfg.Root, resolve.LegacyMain+".csproj"))
	require.NoError(t, err)
	assert.Contains(t, string(legacy), `<Compile Include="Assets\Loose\Baz.cs" />`)

	sln, err := os.ReadFile(filepath.Join(cfg.Root, "Solution.sln"))
	require.NoError(t, err)
	assert.Contains(t, string(sln), `"Game", "Game.csproj", `+render.ProjectGUID("Game"))
	assert.Contains(t, string(sln), `"Core", "Core.csproj", `+render.ProjectGUID("Core"))
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := fixtureProject(t)
	_, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)

	res, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Written)
	assert.Equal(t, 4, res.Unchanged)
}

func TestRunCompileSetsAreDisjoint(t *testing.T) {
	cfg := fixtureProject(t)
	plan, err := BuildPlan(context.Background(), cfg)
	require.NoError(t, err)

	seen := make(map[string]string)
	for name, dirs := range plan.Assignment.DirsByModule {
		for _, dir := range dirs {
			owner, dup := seen[dir]
			require.False(t, dup, "%s claimed by both %s and %s", dir, owner, name)
			seen[dir] = name
		}
	}
}

func TestRunRecursiveMode(t *testing.T) {
	cfg := fixtureProject(t)
	cfg.Recursive = true
	_, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)

	game, err := os.ReadFile(filepath.Join(cfg.Root, "Game.csproj"))
	require.NoError(t, err)
	text := string(game)
	assert.Contains(t, text, `<Compile Include="Assets\Game\**\*.cs" Exclude="Assets\Game\Core\**\*.cs" />`)
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	cfg := fixtureProject(t)
	res, err := Run(context.Background(), cfg, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Written)
	assert.NoFileExists(t, filepath.Join(cfg.Root, "Game.csproj"))
	assert.NoFileExists(t, filepath.Join(cfg.Root, "Solution.sln"))
}

func TestRunNoModulesIsFatal(t *testing.T) {
	root := t.TempDir()
	write(t, root, "Assets/Loose/Baz.cs", "class Baz {}")
	cfg, err := config.Load(root)
	require.NoError(t, err)

	_, err = Run(context.Background(), cfg, Options{})
	require.ErrorIs(t, err, ErrNoModules)
}

func TestRunMissingTemplateAbortsBeforeWriting(t *testing.T) {
	cfg := fixtureProject(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Root, "ProjectTemplates", "Core.csproj.template")))

	_, err := Run(context.Background(), cfg, Options{})
	require.ErrorIs(t, err, render.ErrMissingTemplate)

	// Nothing was written, not even descriptors whose template existed.
	entries, err := os.ReadDir(cfg.Root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".csproj"), e.Name())
		assert.False(t, strings.HasSuffix(e.Name(), ".sln"), e.Name())
	}
}

func TestRunUnresolvedWarning(t *testing.T) {
	cfg := fixtureProject(t)
	write(t, cfg.Root, "Packages/Stray/Qux.cs", "class Qux {}")

	res, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Packages/Stray"}, res.UnresolvedDirs)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "resolve to no assembly")
}
