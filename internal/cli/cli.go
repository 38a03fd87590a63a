package cli

import (
	"fmt"
	"io"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve  *ServeCommand
	Report *ReportCommand
	Reset  *ResetCommand
	Replay *ReplayCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(out io.Writer) (*goflags.Parser, *GlobalFlags, *commands) {
	globals := GlobalFlags{out: out}

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "watchtime"
	parser.LongDescription = "Cross-tab video watch-time aggregation daemon and tools."

	cmds := &commands{
		Serve:  &ServeCommand{globals: &globals},
		Report: &ReportCommand{globals: &globals},
		Reset:  &ResetCommand{globals: &globals},
		Replay: &ReplayCommand{globals: &globals},
	}

	parser.AddCommand("serve", "Run the aggregation daemon", "Run the aggregation daemon with its HTTP API until interrupted.", cmds.Serve)
	parser.AddCommand("report", "Print watch time for a range of days", "Print total, category and domain breakdown for a range of days.", cmds.Report)
	parser.AddCommand("reset", "Reset stored watch time", "Reset one day, or every day with --all.", cmds.Reset)
	parser.AddCommand("replay", "Replay a scripted page session", "Run an activity detector over a scripted page and send its reports to the daemon.", cmds.Replay)

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil, os.Stdout)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string, out io.Writer) error {
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Fprintf(out, "watchtime %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(out)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
