// Command mood-index tags a Spotify track catalog with moods and times of day,
// builds an inverted index and feature store over it, and queries the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/justestif/go-spotify-mood-index/internal/config"
	"github.com/justestif/go-spotify-mood-index/internal/logging"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var usage = strings.TrimSpace(`
usage: mood-index $cmd [flags]
valid $cmd are 'enrich', 'build', 'search', 'recommend', 'clusters', 'fetch'
for help: mood-index $cmd -help
`)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		return errors.New(usage)
	}
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "enrich":
		return enrich(ctx, args)
	case "build":
		return build(ctx, args)
	case "search":
		return search(ctx, args)
	case "recommend":
		return recommendCmd(ctx, args)
	case "clusters":
		return clusters(ctx, args)
	case "fetch":
		return fetch(ctx, args)
	default:
		return fmt.Errorf("unknown cmd: '%s'\n%s", cmd, usage)
	}
}

// command is a subcommand's flag set with the shared -config flag.
type command struct {
	fs         *flag.FlagSet
	configPath string
}

func newCommand(name string) *command {
	c := &command{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.fs.StringVar(&c.configPath, "config", "", "config file (default $MOOD_INDEX_CONFIG or ./mood-index.yaml)")
	return c
}

// parse parses args, loads the configuration and initializes logging.
// apply copies flags that were set on the command line into the config.
func (c *command) parse(args []string, apply func(cfg *config.Config, set map[string]bool)) (*config.Config, error) {
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	c.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if apply != nil {
		apply(cfg, set)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}

	logging.Init(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Timestamp: true,
		Output:    os.Stderr,
	})
	return cfg, nil
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// create opens path for writing, or stdout when path is empty or "-".
func create(path string) (*os.File, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}
