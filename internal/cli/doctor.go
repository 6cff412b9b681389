package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/monokit-dev/monokit/internal/config"
	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/pkgjson"
	"github.com/monokit-dev/monokit/internal/resolve"
	"github.com/monokit-dev/monokit/internal/schema"
	"github.com/monokit-dev/monokit/internal/shell"
	"github.com/monokit-dev/monokit/internal/ui"
)

var doctorOffline bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "Skip the registry check")
	rootCmd.AddCommand(doctorCmd)
}

// doctorBinaries are the programs the post-steps hand off to.
var doctorBinaries = []string{"node", "pnpm", "git"}

type checkup struct {
	p        *ui.Printer
	failures int
}

func (c *checkup) ok(format string, args ...any)   { c.p.Success(format, args...) }
func (c *checkup) warn(format string, args ...any) { c.p.Warn(format, args...) }
func (c *checkup) fail(format string, args ...any) {
	c.failures++
	c.p.Fail(format, args...)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment and the current workspace",
	Long: `Run diagnostic checks: required programs on PATH, registry access, and the
validity of the enclosing pnpm-workspace.yaml and root package.json.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := currentEnv()
		if err != nil {
			return err
		}
		c := &checkup{p: ui.NewPrinter(cmd.OutOrStdout())}

		c.p.Heading("Programs")
		for _, bin := range doctorBinaries {
			if shell.Available(bin) {
				c.ok("%s found", bin)
			} else {
				c.warn("%s not found on PATH; install and git steps will be skipped with a warning", bin)
			}
		}

		s := config.Current()
		c.p.Heading("Registry")
		if doctorOffline {
			c.p.Info("skipped (--offline)")
		} else {
			checkRegistry(cmd.Context(), c, newRegistry(s), s.Registry)
		}

		c.p.Heading("Workspace")
		checkWorkspace(env, c)

		if c.failures > 0 {
			return fmt.Errorf("doctor found %d problem(s)", c.failures)
		}
		return nil
	},
}

func checkRegistry(ctx context.Context, c *checkup, src resolve.VersionSource, base string) {
	v, err := src.LatestVersion(ctx, resolve.TypeScript)
	if err != nil {
		c.fail("%s is not reachable: %v", base, err)
		return
	}
	c.ok("%s reachable (typescript %s)", base, v)
}

func checkWorkspace(env *fsys.Env, c *checkup) {
	path, err := workspaceFile(env, nil)
	var notFound *errs.NotFoundError
	if errors.As(err, &notFound) {
		c.p.Info("no pnpm-workspace.yaml above %s", env.Cwd)
		return
	}
	if err != nil {
		c.fail("%v", err)
		return
	}
	validate(c, env, schema.Workspace, path)

	manifest := filepath.Join(filepath.Dir(path), pkgjson.FileName)
	if ok, _ := fsys.Exists(env.FS, manifest); !ok {
		c.warn("%s has no package.json next to it", filepath.Dir(path))
		return
	}
	if !validate(c, env, schema.Package, manifest) {
		return
	}
	m, err := pkgjson.Load(env.FS, manifest)
	if err != nil {
		c.fail("%v", err)
		return
	}
	if name, version, ok := m.PackageManager(); ok {
		c.ok("packageManager is %s %s", name, version)
	} else if m.Has(pkgjson.KeyPackageManager) {
		c.warn("packageManager in %s is not name@version", manifest)
	} else {
		c.warn("%s does not pin a packageManager", manifest)
	}
}

func validate(c *checkup, env *fsys.Env, s *schema.Schema, path string) bool {
	res, err := s.ValidateFile(env.FS, path)
	if err != nil {
		c.fail("%v", err)
		return false
	}
	if !res.Valid {
		for _, issue := range res.Issues {
			c.fail("%s: %s", path, issue)
		}
		return false
	}
	c.ok("%s is valid", path)
	return true
}
