package cli

import (
	"github.com/spf13/cobra"

	"github.com/monokit-dev/monokit/internal/branding"
	"github.com/monokit-dev/monokit/internal/config"
	"github.com/monokit-dev/monokit/internal/logging"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	logLevel  string
	assumeYes bool
	workDir   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or quiet (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every confirmation and use defaults for other questions")
	rootCmd.PersistentFlags().StringVarP(&workDir, "cwd", "C", "", "Run as if started in this directory")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` scaffolds pnpm monorepos: new repo roots, new workspace packages and
lint/test/build tool configs, with dependency versions kept in a shared catalog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		level := logLevel
		if level == "" {
			level = config.Current().LogLevel
		}
		return logging.Setup(cmd.ErrOrStderr(), level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		maybeNotifyUpdate(cmd)
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
