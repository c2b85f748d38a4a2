package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio-boxcat/unity-solution-generator/internal/asmdef"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeRegistry(t, `
projects:
  - name: Game
    output: Game.csproj
    template: Templates/Game.csproj.template
    guid: 2bafac87-e7f4-b9b4-18d9-448d219b01ab
    category: runtime
  - name: EditorTools
    output: EditorTools.csproj
    category: editor
`)
	reg, err := Load(path)
	require.NoError(t, err)

	game, ok := reg.Lookup("Game")
	require.True(t, ok)
	assert.Equal(t, "Game.csproj", game.Output)
	assert.Equal(t, "Templates/Game.csproj.template", game.Template)

	tools, ok := reg.Lookup("EditorTools")
	require.True(t, ok)
	cat, err := tools.ParseCategory()
	require.NoError(t, err)
	assert.Equal(t, asmdef.EditorOnly, cat)

	_, ok = reg.Lookup("Missing")
	assert.False(t, ok)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no projects", "projects: []\n"},
		{"empty name", "projects:\n  - output: X.csproj\n"},
		{"missing output", "projects:\n  - name: Game\n"},
		{"bad category", "projects:\n  - name: Game\n    output: G.csproj\n    category: bogus\n"},
		{"duplicate name", "projects:\n  - name: Game\n    output: A.csproj\n  - name: Game\n    output: B.csproj\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeRegistry(t, tt.content))
			require.ErrorIs(t, err, ErrInvalidRegistry)
		})
	}
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.ErrorIs(t, err, ErrInvalidRegistry)
}

func TestNilRegistryLookup(t *testing.T) {
	var reg *Registry
	_, ok := reg.Lookup("Game")
	assert.False(t, ok)
}
