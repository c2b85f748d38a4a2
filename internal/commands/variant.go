package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studio-boxcat/unity-solution-generator/internal/generate"
	"github.com/studio-boxcat/unity-solution-generator/internal/output"
	"github.com/studio-boxcat/unity-solution-generator/internal/variant"
)

// PrepareVariantCmd creates the 'prepare-variant' command.
func PrepareVariantCmd() *cobra.Command {
	var templates, registryPath, outDir string
	var platform, buildConfig string
	var debug bool

	cmd := &cobra.Command{
		Use:   "prepare-variant [project-root]",
		Short: "Derive platform/configuration copies of the descriptors",
		Long: `Produce filtered, define-rewritten descriptor copies for one platform
and build configuration. Copies that are already newer than their source
descriptor are skipped; the filesystem timestamp is the only cache.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch buildConfig {
			case variant.ConfigEditor, variant.ConfigDev, variant.ConfigRelease:
			default:
				return fmt.Errorf("unknown build configuration %q", buildConfig)
			}

			cfg, err := loadConfig(args, templates, registryPath, outDir, false)
			if err != nil {
				return err
			}
			plan, err := generate.BuildPlan(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			opts := variant.Options{Platform: platform, Config: buildConfig, Debug: debug}
			res, err := variant.Prepare(plan.Projects, plan.Ownership.Modules(), opts)
			if err != nil {
				return err
			}

			for _, p := range res.Skipped {
				output.Debug("skipped " + p + " (fresh)")
			}
			output.Success(fmt.Sprintf("Variant %s: %d generated, %d skipped",
				opts.Suffix(), len(res.Generated), len(res.Skipped)))
			return nil
		},
	}

	cmd.Flags().StringVar(&templates, "templates", "", "Override the templates directory")
	cmd.Flags().StringVar(&registryPath, "registry", "", "Project registry manifest path")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Override the descriptor output directory")
	cmd.Flags().StringVar(&platform, "platform", "", "Target platform (e.g. iOS, Android)")
	cmd.Flags().StringVar(&buildConfig, "config", variant.ConfigDev, "Build configuration: editor, dev or release")
	cmd.Flags().BoolVar(&debug, "debug", false, "Keep DEBUG/TRACE defines in non-editor configurations")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}
