package commands

import (
	"context"

	"courtfinder/lib/telemetry"
	"courtfinder/services/courtfinder"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpDir    string
)

var rootCmd = &cobra.Command{
	Use:   "courtfinder",
	Short: "courtfinder scans the court reservation site for free courts.",
	Long: `courtfinder logs into the court reservation site once, keeps the session
on disk and searches every date and time of the requested range for free
courts. running it without a subcommand is the same as "courtfinder scan".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
	RunE: runScan,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", courtfinder.ConfigFile, "Path to the json5 config file.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	flags.StringVar(&dumpDir, "dump-dir", "", "Write every http exchange into this directory (requires --verbose).")

	addScanFlags(rootCmd)
}

// ExecuteContext runs the command line, errors are returned to the caller.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
