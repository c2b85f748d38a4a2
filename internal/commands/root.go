package commands

import (
	"github.com/spf13/cobra"

	"github.com/studio-boxcat/unity-solution-generator/internal/config"
	"github.com/studio-boxcat/unity-solution-generator/internal/output"
)

// RootCmd creates and returns the root command for the usgen CLI.
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "usgen",
		Short: "Regenerates C# project and solution descriptors for Unity trees",
		Long: `usgen rediscovers which source files belong to which assembly and
regenerates the .csproj/.sln descriptors an external compiler consumes,
without launching the editor.

Descriptors are rewritten only when their content changes, so repeated
runs over an unchanged tree touch nothing.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	return cmd
}

// loadConfig resolves the project root argument and applies flag overrides.
func loadConfig(args []string, templates, reg, out string, recursive bool) (*config.Config, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if templates != "" {
		cfg.TemplatesDir = templates
	}
	if reg != "" {
		cfg.RegistryPath = reg
	}
	if out != "" {
		cfg.OutputDir = out
	}
	if recursive {
		cfg.Recursive = true
	}
	return cfg, nil
}
