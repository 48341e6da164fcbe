package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"domainwizard/internal/adapters/sqlite"
	"domainwizard/internal/app"
	"domainwizard/internal/config"
	"domainwizard/internal/logger"
)

// cli holds the state shared by every subcommand.
type cli struct {
	dbPath  string
	offline bool
	verbose bool
	json    bool

	cfg config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "wizard",
		Short: "Search for brandable, available domain names",
		Long: `wizard generates candidate domain names over several optimisation loops,
checks their availability and ranks them by marketability and fair value.

Example usage:
  wizard search coffee roastery --tld com --loops 5
  wizard search "solar panels" --budget 30 --json
  wizard appraise brewly.com --price 2500`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return c.setup() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.dbPath, "db", "", "SQLite file holding the optimizer model (default $SQLITE_PATH or domainwizard.db)")
	flags.BoolVar(&c.offline, "offline", false, "skip every network collaborator")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log progress details to stderr")
	flags.BoolVar(&c.json, "json", false, "output as JSON")

	root.AddCommand(newSearchCmd(c), newAppraiseCmd(c))
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil && !errors.Is(err, config.ErrNoDatabase) {
		return err
	}
	if c.dbPath != "" {
		cfg.SQLitePath = c.dbPath
	}
	c.cfg = cfg

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	lg, err := logger.New(logger.Config{Level: level, OutputPaths: []string{"stderr"}})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	c.log = lg
	return nil
}

// open builds the components over the local model store. The returned func
// releases the store.
func (c *cli) open(cmd *cobra.Command) (*app.Components, func(), error) {
	store, err := sqlite.Open(cmd.Context(), c.cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	var opts []app.Option
	if c.offline {
		opts = append(opts, app.Offline())
	}
	comps, err := app.Build(c.cfg, c.log, app.Stores{Models: store}, opts...)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return comps, func() {
		_ = store.Close()
		_ = c.log.Sync()
	}, nil
}
