package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/studio-boxcat/unity-solution-generator/internal/config"
	"github.com/studio-boxcat/unity-solution-generator/internal/generate"
	"github.com/studio-boxcat/unity-solution-generator/internal/output"
)

// debounce batches rapid editor file churn into one regeneration.
const debounce = 500 * time.Millisecond

// WatchCmd creates the 'watch' command: regenerate whenever declarations or
// source files change.
func WatchCmd() *cobra.Command {
	var templates, registryPath, outDir string
	var recursive bool

	cmd := &cobra.Command{
		Use:   "watch [project-root]",
		Short: "Regenerate descriptors whenever the source tree changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args, templates, registryPath, outDir, recursive)
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()
			if err := watchTree(watcher, cfg); err != nil {
				return err
			}

			regen := func() {
				res, err := generate.Run(cmd.Context(), cfg, generate.Options{})
				if err != nil {
					output.Error(err.Error())
					return
				}
				reportWarnings(res)
				if res.Written > 0 {
					output.Success(fmt.Sprintf("Regenerated: %d written, %d unchanged",
						res.Written, res.Unchanged))
				}
			}
			regen()
			output.Info("Watching for changes (Ctrl+C to stop)")

			var timer *time.Timer
			pending := make(chan struct{}, 1)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-pending:
					regen()
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !relevantEvent(event) {
						continue
					}
					if event.Op.Has(fsnotify.Create) {
						if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
							_ = watcher.Add(event.Name)
						}
					}
					output.Debug("changed: " + event.Name)
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, func() {
						select {
						case pending <- struct{}{}:
						default:
						}
					})
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					output.Warn("watch error: " + err.Error())
				}
			}
		},
	}

	cmd.Flags().StringVar(&templates, "templates", "", "Override the templates directory")
	cmd.Flags().StringVar(&registryPath, "registry", "", "Project registry manifest path")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Override the descriptor output directory")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "Emit recursive compile globs with nested excludes")
	return cmd
}

// watchTree registers every non-ignored directory under the configured
// sub-roots. fsnotify watches are per-directory, not recursive.
func watchTree(watcher *fsnotify.Watcher, cfg *config.Config) error {
	for _, sub := range cfg.SubRoots {
		root := filepath.Join(cfg.Root, sub)
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// relevantEvent reports whether an event can change generation output.
func relevantEvent(e fsnotify.Event) bool {
	switch filepath.Ext(e.Name) {
	case ".cs", ".asmdef", ".asmref", ".meta":
		return true
	}
	// Directory creates/renames reshape ownership too.
	return e.Op.Has(fsnotify.Create) || e.Op.Has(fsnotify.Rename) || e.Op.Has(fsnotify.Remove)
}
