package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"courtfinder/lib/browser"
	"courtfinder/lib/restyutil"
	"courtfinder/lib/timezone"
	"courtfinder/services/courtfinder"

	"github.com/spf13/cobra"
)

type scanOptions struct {
	days        int
	start       string
	end         string
	step        int
	duration    float64
	unit        int
	courtType   int
	concurrency int
	out         string
	headful     bool
	login       bool
}

var scanOpts scanOptions

var scanCmd = &cobra.Command{
	Use:   "scan [--days N] [--start HH:MM] [--end HH:MM] [--out slots.json]",
	Short: "Searches every slot of the date and time range for free courts.",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	addScanFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}

func addScanFlags(cmd *cobra.Command) {
	defaults := courtfinder.DefaultConfig()
	flags := cmd.Flags()
	flags.IntVar(&scanOpts.days, "days", defaults.DaysAhead, "Number of days after today to search.")
	flags.StringVar(&scanOpts.start, "start", defaults.Start, "First start time of the day (HH:MM).")
	flags.StringVar(&scanOpts.end, "end", defaults.End, "Last start time of the day (HH:MM).")
	flags.IntVar(&scanOpts.step, "step", defaults.StepMinutes, "Minutes between start times.")
	flags.Float64Var(&scanOpts.duration, "duration", defaults.DurationHours, "Reservation length in hours.")
	flags.IntVar(&scanOpts.unit, "unit", defaults.UnitId, "Tennis center (unit) id.")
	flags.IntVar(&scanOpts.courtType, "type", defaults.CourtType, "Court type id.")
	flags.IntVar(&scanOpts.concurrency, "concurrency", defaults.Concurrency, "Number of concurrent searches.")
	flags.StringVar(&scanOpts.out, "out", defaults.Out, `Results file, .json or .db/.sqlite for a scan history, "" to skip.`)
	flags.BoolVar(&scanOpts.headful, "headful", false, "Show every navigation, also after logging in.")
	flags.BoolVar(&scanOpts.login, "login", false, "Discard the stored session and log in again.")
}

// loadConfig reads the config file and applies the flags that were set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command) (courtfinder.Config, error) {
	cfg, err := courtfinder.LoadConfig(configPath)
	if err != nil {
		return courtfinder.Config{}, err
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	if changed("days") {
		cfg.DaysAhead = scanOpts.days
	}
	if changed("start") {
		cfg.Start = scanOpts.start
	}
	if changed("end") {
		cfg.End = scanOpts.end
	}
	if changed("step") {
		cfg.StepMinutes = scanOpts.step
	}
	if changed("duration") {
		cfg.DurationHours = scanOpts.duration
	}
	if changed("unit") {
		cfg.UnitId = scanOpts.unit
	}
	if changed("type") {
		cfg.CourtType = scanOpts.courtType
	}
	if changed("concurrency") {
		cfg.Concurrency = scanOpts.concurrency
	}
	if changed("out") {
		cfg.Out = scanOpts.out
	}
	if changed("headful") {
		cfg.Headful = scanOpts.headful
	}
	if changed("login") {
		cfg.Login = scanOpts.login
	}
	if changed("dump-dir") {
		cfg.DumpDir = dumpDir
	}

	err = cfg.Validate()
	if err != nil {
		return courtfinder.Config{}, err
	}
	err = timezone.SetLocation(cfg.Timezone)
	if err != nil {
		return courtfinder.Config{}, fmt.Errorf("timezone: %w", err)
	}
	return cfg, nil
}

func newService(cfg courtfinder.Config) (courtfinder.Service, error) {
	var output restyutil.InstrumentOutput
	if cfg.DumpDir != "" {
		fsOutput, err := restyutil.NewFilesystemOutput(cfg.DumpDir)
		if err != nil {
			return courtfinder.Service{}, fmt.Errorf("dump dir: %w", err)
		}
		output = fsOutput
		slog.Debug("dumping http traffic", "dir", cfg.DumpDir)
	}
	prompter := browser.NewTerminalPrompter(os.Stdin, os.Stderr)
	return courtfinder.NewServiceFromConfig(cfg, prompter, output)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	service, err := newService(cfg)
	if err != nil {
		return err
	}

	report, err := service.Scan(cmd.Context())
	return finishScan(cmd.OutOrStdout(), report, err)
}

// finishScan prints whatever results a scan produced before reporting its
// error, so a failed --out write does not hide a finished scan.
func finishScan(w io.Writer, report courtfinder.ScanReport, err error) error {
	if err != nil && len(report.Results) == 0 {
		return err
	}
	renderReport(w, report.Summary)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Bye :)")
	return nil
}
