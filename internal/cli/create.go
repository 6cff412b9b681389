package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monokit-dev/monokit/internal/scaffold"
)

var (
	pkgDescription string
	pkgDeps        []string
	pkgDevDeps     []string
	pkgWorkspace   []string
	pkgTools       []string
	pkgCatalog     bool
	pkgInstall     bool
)

func init() {
	createPackageCmd.Flags().StringVarP(&pkgDescription, "description", "d", "", "Package description")
	createPackageCmd.Flags().StringSliceVar(&pkgDeps, "dep", nil, "Runtime dependencies to add")
	createPackageCmd.Flags().StringSliceVar(&pkgDevDeps, "dev", nil, "Dev dependencies to add")
	createPackageCmd.Flags().StringSliceVarP(&pkgWorkspace, "workspace", "w", nil, "Workspace packages to depend on (linked as workspace:*)")
	createPackageCmd.Flags().StringSliceVarP(&pkgTools, "tools", "t", nil, "Tools to configure: "+joinTools())
	createPackageCmd.Flags().BoolVar(&pkgCatalog, "catalog", true, "Route versions through the workspace catalog (default: on when the workspace has one)")
	createPackageCmd.Flags().BoolVar(&pkgInstall, "install", false, "Install dependencies after generating")

	createCmd.AddCommand(createPackageCmd)
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Scaffold something inside an existing monorepo",
}

var createPackageCmd = &cobra.Command{
	Use:   "package <name>",
	Short: "Create a new workspace package",
	Long: `Create a new package under packages/ in the enclosing pnpm workspace.

An unscoped name inherits the scope of the root package.json, so in a repo
named @acme/root "monokit create package utils" creates @acme/utils.

Examples:
  monokit create package utils --dep zod --tools tsdown,vitest
  monokit create package web -w @acme/utils --catalog=false`,
	Args: cobra.ExactArgs(1),
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
		opts := scaffold.PackageOptions{
			Name:            args[0],
			Description:     pkgDescription,
			Dependencies:    pkgDeps,
			DevDependencies: pkgDevDeps,
			Workspace:       pkgWorkspace,
			Tools:           pkgTools,
			Install:         pkgInstall,
		}
		if cmd.Flags().Changed("catalog") {
			opts.Catalog = &pkgCatalog
		}
		if shouldAsk(cmd, "description") {
			if opts.Description, err = p.Input("Description", ""); err != nil {
				return err
			}
		}
		if shouldAsk(cmd, "tools") {
			if opts.Tools, err = p.MultiSelect("Tools to configure", scaffold.ToolNames(), nil); err != nil {
				return err
			}
		}

		res, err := scaffold.CreatePackage(cmd.Context(), deps, opts)
		if err != nil {
			return err
		}
		printResult(cmd, fmt.Sprintf("Created package in %s", res.Dir), res)
		if !opts.Install {
			nextSteps(cmd, "Run `pnpm install` at the workspace root to link the new package")
		}
		return nil
	},
}
