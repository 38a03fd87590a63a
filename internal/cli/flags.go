package cli

import (
	"io"
	"time"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Server  string        `long:"server" description:"Daemon address" default:"127.0.0.1:8765"`
	Timeout time.Duration `long:"timeout" description:"HTTP timeout" default:"5s"`
	JSON    bool          `long:"json" description:"Output in JSON format"`
	Version bool          `long:"version" description:"Show version and exit"`

	out io.Writer
}

// ServeCommand runs the daemon.
type ServeCommand struct {
	Config string `short:"c" long:"config" description:"Path to YAML config file" required:"true"`
	Debug  bool   `short:"d" long:"debug" description:"Log to console as well"`

	globals *GlobalFlags
}

// ReportCommand prints a range rollup.
type ReportCommand struct {
	From string `long:"from" description:"First day (YYYY-MM-DD), defaults to today"`
	To   string `long:"to" description:"Last day (YYYY-MM-DD), defaults to today"`

	globals *GlobalFlags
}

// ResetCommand clears one day or everything.
type ResetCommand struct {
	Date string `long:"date" description:"Day to reset (YYYY-MM-DD)"`
	All  bool   `long:"all" description:"Reset every stored day"`

	globals *GlobalFlags
}

// ReplayCommand drives a detector from a session script.
type ReplayCommand struct {
	Script       string        `long:"script" description:"Path to JSON-lines session script" required:"true"`
	SyncInterval time.Duration `long:"sync-interval" description:"Periodic flush interval" default:"5s"`
	LogLevel     string        `long:"log-level" description:"Console log level" default:"info"`

	globals *GlobalFlags
}
