package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/monokit-dev/monokit/internal/config"
	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/scaffold"
)

var (
	newDir            string
	newPackageManager string
	newCatalog        bool
	newTools          []string
	newHooks          bool
	newInstall        bool
	newGit            bool
)

func init() {
	newCmd.Flags().StringVar(&newDir, "dir", "", "Parent directory for the new repo (default: current directory)")
	newCmd.Flags().StringVarP(&newPackageManager, "package-manager", "p", "", "Package manager: pnpm, npm, yarn or bun (default from config)")
	newCmd.Flags().BoolVar(&newCatalog, "catalog", true, "Pin shared versions in a pnpm catalog")
	newCmd.Flags().StringSliceVarP(&newTools, "tools", "t", nil, "Tools to configure: "+joinTools())
	newCmd.Flags().BoolVar(&newHooks, "hooks", false, "Set up a husky pre-commit hook running lint-staged")
	newCmd.Flags().BoolVar(&newInstall, "install", true, "Install dependencies after generating")
	newCmd.Flags().BoolVar(&newGit, "git", true, "Initialize a git repository")
	rootCmd.AddCommand(newCmd)
}

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a new monorepo",
	Long: `Create a new monorepo root with a workspace file, shared TypeScript config and
the selected tool configs. Questions not answered by flags are asked interactively.

Examples:
  monokit new acme
  monokit new acme --tools oxlint,vitest --hooks --no-install
  monokit new acme -p npm --catalog=false`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := currentEnv()
		if err != nil {
			return err
		}
		deps, done, err := scaffoldDeps(cmd, env)
		if err != nil {
			return err
		}
		defer done()

		p := deps.Prompter
		settings := config.Current()
		opts := scaffold.MonorepoOptions{Dir: newDir, Tools: newTools}

		if len(args) == 1 {
			opts.Name = args[0]
		} else if !assumeYes && interactive(cmd) {
			if opts.Name, err = p.Input("Repository name", ""); err != nil {
				return err
			}
		}
		if opts.Name == "" {
			return errs.Invalid("name", "", "a repository name is required")
		}

		opts.PackageManager = newPackageManager
		if opts.PackageManager == "" {
			opts.PackageManager = settings.PackageManager
		}
		if shouldAsk(cmd, "package-manager") {
			if opts.PackageManager, err = p.Select("Package manager", scaffold.PackageManagers, opts.PackageManager); err != nil {
				return err
			}
		}
		opts.Catalog = newCatalog
		if !cmd.Flags().Changed("catalog") {
			opts.Catalog = settings.Catalog && opts.PackageManager == scaffold.PNPM
		}
		if opts.PackageManager == scaffold.PNPM {
			if opts.Catalog, err = boolFlag(cmd, p, "catalog", opts.Catalog, "Pin shared versions in a pnpm catalog?"); err != nil {
				return err
			}
		}
		if shouldAsk(cmd, "tools") {
			if opts.Tools, err = p.MultiSelect("Tools to configure", scaffold.ToolNames(), nil); err != nil {
				return err
			}
		}
		if opts.Hooks, err = boolFlag(cmd, p, "hooks", newHooks, "Add a pre-commit hook?"); err != nil {
			return err
		}
		if opts.Git, err = boolFlag(cmd, p, "git", newGit, "Initialize a git repository?"); err != nil {
			return err
		}
		if opts.Install, err = boolFlag(cmd, p, "install", newInstall, "Install dependencies now?"); err != nil {
			return err
		}

		res, err := scaffold.CreateMonorepo(cmd.Context(), deps, opts)
		if err != nil {
			return err
		}
		printResult(cmd, fmt.Sprintf("Created %s", opts.Name), res)

		rel, err := filepath.Rel(env.Cwd, res.Dir)
		if err != nil {
			rel = res.Dir
		}
		steps := []string{fmt.Sprintf("`cd %s`", rel)}
		pm := opts.PackageManager
		if !opts.Install {
			steps = append(steps, fmt.Sprintf("`%s install`", pm))
		}
		steps = append(steps, "`monokit create package <name>` to add a workspace package")
		nextSteps(cmd, steps...)
		return nil
	},
}
