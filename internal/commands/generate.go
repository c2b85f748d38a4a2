package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studio-boxcat/unity-solution-generator/internal/generate"
	"github.com/studio-boxcat/unity-solution-generator/internal/output"
)

// unresolvedSampleLimit caps how many unresolved directories verbose mode
// prints before eliding the rest.
const unresolvedSampleLimit = 10

// GenerateCmd creates the 'generate' command.
func GenerateCmd() *cobra.Command {
	var templates, registryPath, outDir string
	var recursive, dryRun bool

	cmd := &cobra.Command{
		Use:   "generate [project-root]",
		Short: "Regenerate all project descriptors and the solution index",
		Long: `Scan the project tree, resolve assembly ownership for every source
directory, and rewrite the descriptors whose content changed.

Fatal conditions (duplicate assembly names, missing templates) abort the
run before anything is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args, templates, registryPath, outDir, recursive)
			if err != nil {
				return err
			}

			res, err := generate.Run(cmd.Context(), cfg, generate.Options{DryRun: dryRun})
			if err != nil {
				return err
			}

			reportWarnings(res)
			if dryRun {
				output.Info(fmt.Sprintf("Dry run: %d descriptors would change, %d unchanged",
					res.Written, res.Unchanged))
				return nil
			}
			output.Success(fmt.Sprintf("Generated %d projects (%d written, %d unchanged)",
				len(res.Projects), res.Written, res.Unchanged))
			return nil
		},
	}

	cmd.Flags().StringVar(&templates, "templates", "", "Override the templates directory")
	cmd.Flags().StringVar(&registryPath, "registry", "", "Project registry manifest path")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Override the descriptor output directory")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "Emit recursive compile globs with nested excludes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report would-be writes without touching disk")
	return cmd
}

func reportWarnings(res *generate.Result) {
	for _, w := range res.Warnings {
		output.Warn(w)
	}
	if output.Verbose() {
		for i, dir := range res.UnresolvedDirs {
			if i == unresolvedSampleLimit {
				output.Step(fmt.Sprintf("… and %d more", len(res.UnresolvedDirs)-i))
				break
			}
			output.Step("unresolved: " + dir)
		}
	}
}
