package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/monokit-dev/monokit/internal/branding"
	"github.com/monokit-dev/monokit/internal/config"
	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/registry"
	"github.com/monokit-dev/monokit/internal/ui"
)

// noticeTimeout bounds the registry lookup behind the update notice so a
// slow network never holds up a finished command.
const noticeTimeout = 2 * time.Second

// maybeNotifyUpdate prints a banner when a newer monokit is published. It
// only runs in interactive sessions and never fails the command.
func maybeNotifyUpdate(cmd *cobra.Command) {
	s := config.Current()
	if !s.UpdateCheck || !interactive(cmd) {
		return
	}
	if _, err := registry.ParseVersion(buildVersion); err != nil {
		return // dev build
	}
	env, err := currentEnv()
	if err != nil {
		return
	}
	notifyUpdate(cmd.Context(), cmd.ErrOrStderr(), env, s, buildVersion)
}

// notifyUpdate looks up the latest published version through the version
// cache and prints a banner when it is newer than current.
func notifyUpdate(ctx context.Context, w io.Writer, env *fsys.Env, s config.Settings, current string) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, noticeTimeout)
	defer cancel()

	versions, done := cachedVersions(env, s)
	defer done()
	latest, err := versions.LatestVersion(ctx, branding.CLIName())
	if err != nil {
		log.Debug().Err(err).Msg("update check failed")
		return false
	}
	if !registry.IsNewer(current, latest) {
		return false
	}
	fmt.Fprintln(w)
	p := ui.NewPrinter(w)
	p.Warn("Update available: %s -> %s", current, latest)
	p.Info("    Run %s to upgrade", p.Accent("npm install -g "+branding.CLIName()))
	return true
}
