package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/linuxmatters/trackpolish/internal/cli"
	"github.com/linuxmatters/trackpolish/internal/config"
	"github.com/linuxmatters/trackpolish/internal/logging"
	"github.com/linuxmatters/trackpolish/internal/presets"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	version = "0.0.1"
)

// debugLogFile receives diagnostics while the TUI owns the terminal.
const debugLogFile = "trackpolish-debug.log"

// versionFlag prints styled version information and exits.
type versionFlag bool

func (versionFlag) BeforeReset(app *kong.Kong) error {
	cli.PrintVersion(version)
	app.Exit(0)
	return nil
}

// Globals are flags shared by every command.
type Globals struct {
	Version   versionFlag `help:"Show version information"`
	Config    string      `short:"c" type:"path" help:"Path to YAML config file (default: ~/.config/trackpolish/config.yaml)"`
	Overrides string      `type:"path" help:"Directory holding mix-presets.yaml and mastering-presets.yaml overrides"`
	Verbose   bool        `short:"v" help:"Show debug output"`
	Quiet     bool        `short:"q" help:"Show only warnings and errors"`
	Plain     bool        `help:"Disable the interactive progress display"`
	Logs      bool        `help:"Save a run report and a debug log"`
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Mix     MixCmd     `cmd:"" help:"Polish stems or full mixes with genre presets"`
	Master  MasterCmd  `cmd:"" help:"Master an album to a loudness target"`
	Fix     FixCmd     `cmd:"" help:"Tame a single track with too much dynamic range"`
	QC      QCCmd      `cmd:"" name:"qc" help:"Run technical QC checks on finished tracks"`
	Analyze AnalyzeCmd `cmd:"" help:"Measure an album and suggest mastering fixes"`
}

// session carries the resolved configuration into each command.
type session struct {
	*Globals
	cfg config.Config
	tui bool
}

// loadPresets loads the built-in presets plus overrides from --overrides,
// TRACKPOLISH_OVERRIDES or the config file, in that order.
func (s *session) loadPresets() (*presets.Store, error) {
	return presets.Load(presets.Options{
		OverridesDir: config.Pick(s.Overrides, s.cfg.OverridesDir),
	})
}

// jobs resolves -j: an explicit flag wins, then the config file, then
// sequential processing.
func (s *session) jobs(flag int) int {
	switch {
	case flag >= 0:
		return flag
	case s.cfg.Jobs != 0:
		return s.cfg.Jobs
	default:
		return 1
	}
}

// setupLogging sends logs to stderr in plain mode. In TUI mode they go to
// the debug log when --logs is set and are discarded otherwise.
func (s *session) setupLogging() (func(), error) {
	opts := logging.Options{Verbose: s.Verbose, Quiet: s.Quiet, Writer: os.Stderr}
	if s.tui {
		opts.Writer = nil
		if s.Logs {
			opts.File = debugLogFile
		}
	}
	closer, err := logging.Setup(opts)
	if err != nil {
		return nil, err
	}
	return func() { _ = closer.Close() }, nil
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("trackpolish"),
		kong.Description("Batch mixing, mastering and QC for album tracks"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Config errors are reported before any logging is redirected.
	logrus.SetOutput(os.Stderr)
	cfg, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	s := &session{
		Globals: &cliArgs.Globals,
		cfg:     cfg,
		tui:     !cliArgs.Plain && isatty.IsTerminal(os.Stdout.Fd()),
	}

	// Missing directories, unknown genres and output paths outside the
	// input exit 1; per-track failures are reported and do not.
	if err := ctx.Run(s); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}
