package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/monokit-dev/monokit/internal/scaffold"
)

var (
	addDir     string
	addCatalog bool
	addInstall bool
)

func init() {
	addCmd.Flags().StringVar(&addDir, "dir", "", "Directory to start looking for package.json (default: current directory)")
	addCmd.Flags().BoolVar(&addCatalog, "catalog", true, "Route versions through the workspace catalog (default: on when the workspace has one)")
	addCmd.Flags().BoolVar(&addInstall, "install", false, "Install dependencies afterwards")
	rootCmd.AddCommand(addCmd)
}

func joinTools() string {
	return strings.Join(scaffold.ToolNames(), ", ")
}

var addCmd = &cobra.Command{
	Use:       "add [tool...]",
	Short:     "Add tool configs to the nearest package",
	ValidArgs: scaffold.ToolNames(),
	Long: `Render config files for the named tools into the nearest package and add
their dev dependencies and scripts to its package.json. Existing scripts and
dependencies are never overwritten.

Available tools: ` + joinTools() + `

Examples:
  monokit add vitest
  monokit add oxlint tsdown --dir packages/utils`,
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

		tools := args
		if len(tools) == 0 && !assumeYes && interactive(cmd) {
			if tools, err = deps.Prompter.MultiSelect("Tools to add", scaffold.ToolNames(), nil); err != nil {
				return err
			}
		}
		opts := scaffold.ToolOptions{Tools: tools, Dir: addDir, Install: addInstall}
		if cmd.Flags().Changed("catalog") {
			opts.Catalog = &addCatalog
		}

		res, err := scaffold.AddTools(cmd.Context(), deps, opts)
		if err != nil {
			return err
		}
		printResult(cmd, "Added "+strings.Join(tools, ", "), res)
		return nil
	},
}
