package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio-boxcat/unity-solution-generator/internal/pattern"
)

func TestProjectGUIDIsStable(t *testing.T) {
	first := ProjectGUID("Game")
	second := ProjectGUID("Game")
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, ProjectGUID("Core"))

	assert.True(t, strings.HasPrefix(first, "{"))
	assert.True(t, strings.HasSuffix(first, "}"))
	assert.Equal(t, strings.ToUpper(first), first)
}

func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRenderProject(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, "Game.csproj.template", strings.Join([]string{
		"<Project root=\"PROJECT_ROOT\" tool=\"GENERATOR_VERSION\">",
		"  <Name>PROJECT_NAME</Name>",
		"  <Guid>PROJECT_GUID</Guid>",
		"  <DefineConstants>DEFINE_CONSTRAINTS</DefineConstants>",
		"SOURCE_FOLDERS",
		"PROJECT_REFERENCES",
		"</Project>",
	}, "\n"))

	r := NewRenderer("/proj", "1.2.3")
	p := ProjectInfo{
		Name: "Game", OutputPath: "/proj/Game.csproj", TemplatePath: tmpl, GUID: "{AAAA}",
		DefineConstraints: []string{"UNITY_INCLUDE_TESTS", "CUSTOM"},
	}
	core := ProjectInfo{Name: "Core", OutputPath: "/proj/Core.csproj", GUID: "{BBBB}"}

	out, err := r.Project(p, []pattern.CompilePattern{
		{Include: "Assets/Game/*.cs"},
		{Include: "Assets/Sub/**/*.cs", Excludes: []string{"Assets/Sub/Core/**/*.cs"}},
	}, []ProjectInfo{core, core}) // duplicate reference collapses to one entry
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, `root="/proj" tool="1.2.3"`)
	assert.Contains(t, text, "<Name>Game</Name>")
	assert.Contains(t, text, "<Guid>{AAAA}</Guid>")
	assert.Contains(t, text, "<DefineConstants>UNITY_INCLUDE_TESTS;CUSTOM</DefineConstants>")
	assert.NotContains(t, text, SlotDefineConstraints)
	assert.Contains(t, text, `<Compile Include="Assets\Game\*.cs" />`)
	assert.Contains(t, text, `<Compile Include="Assets\Sub\**\*.cs" Exclude="Assets\Sub\Core\**\*.cs" />`)
	assert.Equal(t, 1, strings.Count(text, "<ProjectReference"))
	assert.Contains(t, text, `<ProjectReference Include="Core.csproj">`)
	assert.Contains(t, text, "<Project>{BBBB}</Project>")
}

func TestRenderSolution(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, "Solution.sln.template",
		"Microsoft Visual Studio Solution File\nSOLUTION_PROJECTS\nGlobal\nEndGlobal\n")

	r := NewRenderer("/proj", "1.0")
	out, err := r.Solution(tmpl, []ProjectInfo{
		{Name: "Core", OutputPath: "/proj/Core.csproj", GUID: "{BBBB}"},
		{Name: "Game", OutputPath: "/proj/Game.csproj", GUID: "{AAAA}"},
	})
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, `= "Core", "Core.csproj", "{BBBB}"`)
	assert.Contains(t, text, `= "Game", "Game.csproj", "{AAAA}"`)
	assert.Equal(t, 2, strings.Count(text, "EndProject"))
}

func TestMissingTemplateIsFatal(t *testing.T) {
	r := NewRenderer("/proj", "1.0")
	_, err := r.Project(ProjectInfo{Name: "X", TemplatePath: "/nope/X.csproj.template"}, nil, nil)
	require.ErrorIs(t, err, ErrMissingTemplate)

	_, err = r.Solution("/nope/Solution.sln.template", nil)
	require.ErrorIs(t, err, ErrMissingTemplate)
}

func TestWriterIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "Game.csproj")

	w := &Writer{}
	wrote, err := w.Write(path, []byte("content"))
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = w.Write(path, []byte("content"))
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, 1, w.Written)
	assert.Equal(t, 1, w.Unchanged)

	wrote, err = w.Write(path, []byte("changed"))
	require.NoError(t, err)
	assert.True(t, wrote)
}

func TestWriterDryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Game.csproj")

	w := &Writer{DryRun: true}
	wrote, err := w.Write(path, []byte("content"))
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.NoFileExists(t, path)
}
