package main

// c9rev2git converts a Cloud9-style collaborative editor database into a
// git repository whose linear commit history replays each document's
// operational-transform revision log.
//
// Pipeline: Ingestion (internal/store) populates an in-memory document
// table. Repo Bootstrap (internal/vcs) creates the working directory and
// the empty root commit. The Driver (internal/driver) then runs the
// Reset Classifier, Inverse/Forward Replayers, and Commit Driver per
// document.

import (
	"errors"
	"os"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/bolt-blue/c9rev2git/internal/config"
	"github.com/bolt-blue/c9rev2git/internal/driver"
	"github.com/bolt-blue/c9rev2git/internal/graph"
	"github.com/bolt-blue/c9rev2git/internal/store"
	"github.com/bolt-blue/c9rev2git/internal/vcs"
	"github.com/bolt-blue/c9rev2git/internal/version"
)

// cliOptions holds the parsed flags and positional argument, kept
// separate from flag parsing so run can be exercised directly from tests
// without touching os.Args/os.Exit.
type cliOptions struct {
	Quiet      bool
	Output     string
	ConfigFile string
	GraphFile  string
	GraphPNG   string
	ProfileDir string
	DBPath     string
}

func parseArgs(args []string, stderr *logrus.Logger) (*cliOptions, int, bool) {
	app := kingpin.New("c9rev2git", "Converts a Cloud9-style collaborative editor database into a git repository whose commit history replays each document's revision log.\n")
	app.UsageTemplate(kingpin.CompactUsageTemplate).Version(version.Print("c9rev2git")).Author("c9rev2git")
	app.HelpFlag.Short('h')
	app.Terminate(nil)

	opts := &cliOptions{}
	app.Flag("quiet", "Suppress progress output on standard output. Errors still go to standard error.").Short('q').BoolVar(&opts.Quiet)
	app.Flag("output", "Name of the output/working directory.").Short('o').Default("repo").StringVar(&opts.Output)
	app.Flag("config", "Optional YAML file overriding commit identity and the replay error policy.").Short('c').StringVar(&opts.ConfigFile)
	app.Flag("graph", "Write a Graphviz DOT file of the replayed commit history.").StringVar(&opts.GraphFile)
	app.Flag("graph-png", "Also render the commit history graph as a PNG (requires --graph).").StringVar(&opts.GraphPNG)
	app.Flag("profile", "Capture a CPU profile of the run into this directory.").StringVar(&opts.ProfileDir)
	app.Arg("database", "Path to the source Cloud9 revision database.").Required().StringVar(&opts.DBPath)

	if _, err := app.Parse(args); err != nil {
		stderr.Errorf("usage error: %v", err)
		return nil, 1, false
	}
	return opts, 0, true
}

// run executes the full conversion pipeline and returns a process exit
// code.
func run(args []string, stdout, stderr *logrus.Logger) int {
	opts, code, ok := parseArgs(args, stderr)
	if !ok {
		return code
	}

	if opts.Quiet {
		stdout.Level = logrus.ErrorLevel
	} else {
		stdout.Level = logrus.InfoLevel
	}

	if opts.ProfileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.ProfileDir)).Stop()
	}

	cfg := config.Default()
	if opts.ConfigFile != "" {
		loaded, err := config.LoadFile(opts.ConfigFile)
		if err != nil {
			stderr.Errorf("usage error: %v", err)
			return 1
		}
		cfg = loaded
	}

	stdout.Infof("%s", version.Print("c9rev2git"))
	stdout.Infof("starting replay of %s into %s", opts.DBPath, opts.Output)

	repo, err := vcs.Init(opts.Output, cfg.FallbackName(), cfg.FallbackEmail())
	if err != nil {
		stderr.Errorf("%v", err)
		return 2
	}

	docs, summary, err := store.Load(opts.DBPath, opts.Output, cfg.OnParseErr, stdout)
	if err != nil {
		stderr.Errorf("%v", err)
		if errors.Is(err, store.ErrStoreOpen) {
			return 2
		}
		return 3
	}
	stdout.Infof("ingested %d documents (%d directories, %d files created)", len(docs), summary.Dirs, summary.Files)

	if err := driver.Run(docs, repo, opts.Output, cfg, stdout); err != nil {
		stderr.Errorf("%v", err)
		if code, ok := vcs.ExitCodeOf(err); ok && code > 0 {
			return code
		}
		return 4
	}
	stdout.Infof("replay complete: %d commits", len(repo.Chain))

	if opts.GraphFile != "" {
		if err := graph.WriteDOT(repo.Chain, opts.GraphFile); err != nil {
			stderr.Errorf("failed to write graph file: %v", err)
		} else if opts.GraphPNG != "" {
			graph.WritePNG(repo.Chain, opts.GraphPNG, stdout)
		}
	}
	return 0
}

func main() {
	stdout := logrus.New()
	stdout.Out = os.Stdout
	stdout.Level = logrus.InfoLevel

	stderr := logrus.New()
	stderr.Out = os.Stderr
	stderr.Level = logrus.InfoLevel

	os.Exit(run(os.Args[1:], stdout, stderr))
}
