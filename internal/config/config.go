// Package config holds the explicit run configuration threaded through every
// component. There is no global default root: every entry point receives a
// Config.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// Version is substituted into descriptors so downstream tooling can tell
// which generator produced them.
const Version = "1.4.0"

// Config is one run's settings. Zero-value fields are filled by Load.
type Config struct {
	// Root is the Unity project root.
	Root string `mapstructure:"-"`

	// SubRoots are the root-relative directories to scan.
	SubRoots []string `mapstructure:"sub_roots"`

	// TemplatesDir contains one template per module plus the solution
	// template, relative to Root unless absolute.
	TemplatesDir string `mapstructure:"templates"`

	// OutputDir receives the descriptor files, relative to Root unless
	// absolute.
	OutputDir string `mapstructure:"output"`

	// RegistryPath optionally points at a project-registry manifest.
	RegistryPath string `mapstructure:"registry"`

	// SolutionName names the solution-index descriptor (without extension).
	SolutionName string `mapstructure:"solution"`

	// Recursive selects recursive compile patterns with nested excludes
	// instead of per-directory globs.
	Recursive bool `mapstructure:"recursive"`
}

// Load resolves the configuration for a project root, layering an optional
// usgen.yml in the root over built-in defaults.
func Load(root string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("usgen")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)
	v.SetDefault("sub_roots", []string{"Assets", "Packages"})
	v.SetDefault("templates", "ProjectTemplates")
	v.SetDefault("output", ".")
	v.SetDefault("solution", "Solution")

	if err := v.ReadInConfig(); err != nil {
		// A project without usgen.yml uses pure defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{Root: root}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TemplatesPath returns the absolute templates directory.
func (c *Config) TemplatesPath() string {
	return c.absolute(c.TemplatesDir)
}

// OutputPath returns the absolute descriptor output directory.
func (c *Config) OutputPath() string {
	return c.absolute(c.OutputDir)
}

// RegistryAbs returns the absolute registry path, or "" when none is set.
func (c *Config) RegistryAbs() string {
	if c.RegistryPath == "" {
		return ""
	}
	return c.absolute(c.RegistryPath)
}

func (c *Config) absolute(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}
