package cli

import (
	"flag"
	"io"
)

const versionString = "1.0.0"

type cliOptions struct {
	configPath    string
	entry         string
	entryFile     string
	format        string
	chain         string
	once          bool
	watch         bool
	ui            bool
	history       bool
	historyWindow string
	verbose       bool
	version       bool
	args          []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("docgen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to docgen.toml (default: ./docgen.toml when present)")
	fs.StringVar(&opts.entry, "entry", "", "Entry point: function name or Type::method")
	fs.StringVar(&opts.entryFile, "entry-file", "", "Entry file relative to the crate root")
	fs.StringVar(&opts.format, "format", "tree", "Stdout rendering: tree, dot, mermaid, plantuml, tsv, json or none")
	fs.StringVar(&opts.chain, "chain", "", "Print the call chain between two node keys (<from>,<to>)")
	fs.BoolVar(&opts.once, "once", true, "Build once and exit")
	fs.BoolVar(&opts.watch, "watch", false, "Rebuild on source changes")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI (requires --watch)")
	fs.BoolVar(&opts.history, "history", false, "Record build snapshots and print a trend summary")
	fs.StringVar(&opts.historyWindow, "history-window", "24h", "Moving-window duration for trend summaries")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if opts.watch {
		opts.once = false
	}

	opts.args = fs.Args()
	return opts, nil
}
