package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/monokit-dev/monokit/internal/branding"
	"github.com/monokit-dev/monokit/internal/config"
	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/prompt"
	"github.com/monokit-dev/monokit/internal/registry"
	"github.com/monokit-dev/monokit/internal/resolve"
	"github.com/monokit-dev/monokit/internal/scaffold"
	"github.com/monokit-dev/monokit/internal/shell"
	"github.com/monokit-dev/monokit/internal/ui"
)

// Seams replaced by tests.
var (
	openEnv     = fsys.OS
	interactive = func(cmd *cobra.Command) bool {
		return ui.IsTerminal(cmd.InOrStdin()) && ui.IsTerminal(cmd.ErrOrStderr())
	}
	newRegistry = func(s config.Settings) registry.Source {
		return registry.New(
			registry.WithBaseURL(s.Registry),
			registry.WithToken(s.RegistryToken),
			registry.WithTimeout(s.Timeout),
			registry.WithUserAgent(branding.CLIName()+"/"+buildVersion),
		)
	}
	newRunner = func(cmd *cobra.Command) shell.Runner {
		return &shell.ExecRunner{Stdout: cmd.ErrOrStderr(), Stderr: cmd.ErrOrStderr()}
	}
)

func currentEnv() (*fsys.Env, error) {
	env, err := openEnv()
	if err != nil {
		return nil, err
	}
	if workDir != "" {
		env = env.WithCwd(workDir)
	}
	return env, nil
}

// prompterFor answers questions on the terminal, or from defaults when the
// session is not interactive. --yes always uses defaults and confirms.
func prompterFor(cmd *cobra.Command) prompt.Prompter {
	if assumeYes {
		return prompt.Static{AssumeYes: true}
	}
	if interactive(cmd) {
		return prompt.NewLine(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	return prompt.Static{}
}

// cachedVersions wraps the registry with the on-disk version cache. The
// returned func saves the cache and must be called when the command is done.
func cachedVersions(env *fsys.Env, s config.Settings) (resolve.VersionSource, func()) {
	src := newRegistry(s)
	cache, err := registry.LoadCache(env.FS, filepath.Join(config.Dir(), registry.CacheFileName), s.CacheTTL)
	if err != nil {
		log.Debug().Err(err).Msg("registry cache unavailable")
		return src, func() {}
	}
	return registry.WithCache(src, cache), func() {
		if err := cache.Save(); err != nil {
			log.Debug().Err(err).Msg("saving registry cache")
		}
	}
}

// spinner shows progress on stderr while work runs.
func spinner(cmd *cobra.Command) func(context.Context, string, func(context.Context) error) error {
	return func(ctx context.Context, title string, work func(context.Context) error) error {
		return ui.RunSpinner(ctx, cmd.ErrOrStderr(), title, work)
	}
}

// scaffoldDeps assembles the dependencies shared by the generating commands.
func scaffoldDeps(cmd *cobra.Command, env *fsys.Env) (scaffold.Deps, func(), error) {
	s := config.Current()
	templates, err := scaffold.TemplatesFrom(s.TemplatesDir)
	if err != nil {
		return scaffold.Deps{}, nil, err
	}
	versions, done := cachedVersions(env, s)
	return scaffold.Deps{
		Env:         env,
		Prompter:    prompterFor(cmd),
		Versions:    versions,
		Runner:      newRunner(cmd),
		Templates:   templates,
		Concurrency: s.Concurrency,
		Progress:    spinner(cmd),
	}, done, nil
}

// shouldAsk reports whether the question behind flag should be put to the
// user: only in an interactive session without --yes, and only when the
// flag was not given.
func shouldAsk(cmd *cobra.Command, flag string) bool {
	return !assumeYes && interactive(cmd) && !cmd.Flags().Changed(flag)
}

// boolFlag returns the flag value, asking first when shouldAsk allows it.
func boolFlag(cmd *cobra.Command, p prompt.Prompter, name string, value bool, question string) (bool, error) {
	if !shouldAsk(cmd, name) {
		return value, nil
	}
	return p.Confirm(question, value)
}

func printResult(cmd *cobra.Command, title string, res *scaffold.Result) {
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.Success("%s", title)
	for _, f := range res.Files {
		rel, err := filepath.Rel(res.Dir, f)
		if err != nil {
			rel = f
		}
		p.Info("  %s %s", p.Muted("created"), rel)
	}
	for _, f := range res.Skipped {
		p.Info("  %s %s", p.Muted("kept"), f)
	}
	if res.Dependencies != nil {
		if names := res.Dependencies.Names(); len(names) > 0 {
			p.Info("  %s %d dependencies", p.Muted("added"), len(names))
		}
	}
	for _, w := range res.Warnings {
		p.Warn("%s", w)
	}
}

func nextSteps(cmd *cobra.Command, steps ...string) {
	md := "## Next steps\n\n"
	for i, s := range steps {
		md += fmt.Sprintf("%d. %s\n", i+1, s)
	}
	if err := ui.RenderMarkdown(cmd.OutOrStdout(), md); err != nil {
		log.Debug().Err(err).Msg("rendering next steps")
	}
}
