package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, []string{"Assets", "Packages"}, cfg.SubRoots)
	assert.Equal(t, "Solution", cfg.SolutionName)
	assert.False(t, cfg.Recursive)
	assert.Equal(t, filepath.Join(root, "ProjectTemplates"), cfg.TemplatesPath())
	assert.Equal(t, root, cfg.OutputPath())
	assert.Empty(t, cfg.RegistryAbs())
}

func TestLoadFromFile(t *testing.T) {
	root := t.TempDir()
	content := `
sub_roots: [Assets]
templates: Tools/Templates
output: Generated
registry: projects.yml
solution: MyGame
recursive: true
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "usgen.yml"), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets"}, cfg.SubRoots)
	assert.Equal(t, filepath.Join(root, "Tools/Templates"), cfg.TemplatesPath())
	assert.Equal(t, filepath.Join(root, "Generated"), cfg.OutputPath())
	assert.Equal(t, filepath.Join(root, "projects.yml"), cfg.RegistryAbs())
	assert.Equal(t, "MyGame", cfg.SolutionName)
	assert.True(t, cfg.Recursive)
}

func TestAbsolutePathsPassThrough(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	cfg, err := Load(root)
	require.NoError(t, err)
	cfg.TemplatesDir = other
	assert.Equal(t, other, cfg.TemplatesPath())
}
