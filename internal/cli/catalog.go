package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/monokit-dev/monokit/internal/config"
	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/resolve"
	"github.com/monokit-dev/monokit/internal/scaffold"
	"github.com/monokit-dev/monokit/internal/structfile"
	"github.com/monokit-dev/monokit/internal/ui"
	"github.com/monokit-dev/monokit/internal/workspace"
)

var (
	catalogExclude       []string
	catalogInclude       []string
	catalogAdd           []string
	catalogNamed         []string
	catalogNoMainCatalog bool
	catalogDryRun        bool
)

func init() {
	catalogUpdateCmd.Flags().StringSliceVarP(&catalogExclude, "exclude", "e", nil, "Entries to leave untouched")
	catalogUpdateCmd.Flags().StringSliceVarP(&catalogInclude, "include", "i", nil, "Only refresh these entries")
	catalogUpdateCmd.Flags().StringSliceVarP(&catalogAdd, "add", "a", nil, "New entries to pin at their latest version")
	catalogUpdateCmd.Flags().StringSliceVar(&catalogNamed, "catalogs", nil, `Named catalogs to update, or "all"`)
	catalogUpdateCmd.Flags().BoolVar(&catalogNoMainCatalog, "no-main-catalog", false, "Leave the main catalog alone; --add targets the named catalogs")
	catalogUpdateCmd.Flags().BoolVar(&catalogDryRun, "dry-run", false, "Show what would change without writing")
	catalogUpdateCmd.MarkFlagsMutuallyExclusive("exclude", "include")

	catalogCmd.AddCommand(catalogUpdateCmd)
	catalogCmd.AddCommand(catalogListCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and refresh the pnpm version catalog",
}

// workspaceFile returns the explicit path, or the nearest
// pnpm-workspace.yaml above the working directory.
func workspaceFile(env *fsys.Env, args []string) (string, error) {
	if len(args) == 1 {
		return env.Abs(args[0]), nil
	}
	path, err := structfile.FindUp(env, structfile.Query{Name: workspace.FileName, Type: structfile.File, ExcludeDirs: scaffold.ExcludedDirs})
	if err != nil {
		return "", fmt.Errorf("locating %s: %w", workspace.FileName, err)
	}
	return path, nil
}

var catalogUpdateCmd = &cobra.Command{
	Use:   "update [file]",
	Short: "Bump catalog entries to their latest versions",
	Long: `Resolve the latest version of every catalog entry and write it back as a
caret range. Entries pinned to workspace:, npm:, link:, file: or git specs are
left alone. Comments and the order of entries are kept.

Examples:
  monokit catalog update
  monokit catalog update --exclude typescript
  monokit catalog update --add zod --catalogs all
  monokit catalog update --catalogs react18 --no-main-catalog`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := currentEnv()
		if err != nil {
			return err
		}
		path, err := workspaceFile(env, args)
		if err != nil {
			return err
		}
		s := config.Current()
		opts := resolve.UpdateOptions{
			Exclude:       catalogExclude,
			Include:       catalogInclude,
			Add:           catalogAdd,
			Catalogs:      catalogNamed,
			NoMainCatalog: catalogNoMainCatalog,
			Concurrency:   s.Concurrency,
			DryRun:        catalogDryRun,
		}

		// Always ask the registry: a stale cache would defeat the update.
		src := newRegistry(s)
		var report *resolve.UpdateReport
		err = ui.RunSpinner(cmd.Context(), cmd.ErrOrStderr(), "Checking latest versions", func(ctx context.Context) error {
			var err error
			report, err = resolve.UpdateCatalog(ctx, env, src, path, opts)
			return err
		})
		if err != nil {
			return err
		}
		printReport(cmd, report)
		return nil
	},
}

func printReport(cmd *cobra.Command, r *resolve.UpdateReport) {
	p := ui.NewPrinter(cmd.OutOrStdout())
	for _, c := range r.Updated {
		p.Info("%s %s %s → %s", p.Muted(c.CatalogLabel()), c.Name, c.From, p.Accent(c.To))
	}
	for _, c := range r.Added {
		p.Info("%s %s %s", p.Muted(c.CatalogLabel()), c.Name, p.Accent("+ "+c.To))
	}
	for _, c := range r.Skipped {
		p.Info("%s %s %s", p.Muted(c.CatalogLabel()), c.Name, p.Muted("kept "+c.From))
	}
	for _, w := range r.Warnings {
		p.Warn("%s", w)
	}

	changed := len(r.Updated) + len(r.Added)
	switch {
	case changed == 0:
		p.Success("%s is up to date (%d entries checked)", r.Path, len(r.Unchanged)+len(r.Skipped))
	case r.Written:
		p.Success("Updated %d entries in %s", changed, r.Path)
	default:
		p.Info("Dry run: %d entries would change in %s", changed, r.Path)
	}
}

var catalogListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "Show the catalog entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := currentEnv()
		if err != nil {
			return err
		}
		path, err := workspaceFile(env, args)
		if err != nil {
			return err
		}
		f, err := workspace.Load(env.FS, path)
		if err != nil {
			return err
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		catalogs := []string{workspace.Main}
		catalogs = append(catalogs, f.CatalogNames()...)
		printed := 0
		for _, name := range catalogs {
			entries := f.Entries(name)
			if len(entries) == 0 {
				continue
			}
			label := resolve.Change{Catalog: name}.CatalogLabel()
			p.Heading("%s", label)
			slices.SortFunc(entries, func(a, b workspace.Entry) int { return cmp.Compare(a.Name, b.Name) })
			for _, e := range entries {
				p.Info("  %s %s", e.Name, p.Muted(e.Spec))
			}
			printed++
		}
		if printed == 0 {
			p.Info("No catalog entries in %s", path)
		}
		return nil
	},
}
