package logquery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"scanlink/config"
	ncerr "scanlink/internal/errors"
	"scanlink/util"
)

// Command is the logquery program.  Zero fields fall back to the
// process streams and the MySQL driver.
type Command struct {
	Stdout io.Writer
	Stderr io.Writer

	// Open replaces the MySQL connection in tests.
	Open func(config.DatabaseConfig) (*sql.DB, error)
}

func (c *Command) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *Command) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

// Run parses args, queries the log table and prints the result.
//
// Usage errors and an empty result print their message to stdout and
// return a silent *errors.ExitError with code 1.
func (c *Command) Run(ctx context.Context, args []string) error {
	a, err := ParseArgs(args)
	if errors.Is(err, ErrUsage) {
		fmt.Fprintln(c.stdout(), Usage)
		return &ncerr.ExitError{Code: 1, Err: err, Silent: true}
	}
	if err != nil {
		return err
	}

	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}

	logger := util.NewLogger(a.Verbose)
	logger.SetOutput(c.stderr())

	open := c.Open
	if open == nil {
		open = Open
	}
	db, err := open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("connecting to %s@%s/%s", cfg.Database.User,
		util.FormatAddr(cfg.Database.Host, cfg.Database.Port), cfg.Database.Name)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Verbose("fetching %s .. %s", a.Range.Start, a.Range.End)
	rows, err := NewStore(db).Fetch(ctx, a.Range)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(c.stdout(), "Zero rows fetched")
		return &ncerr.ExitError{Code: 1, Err: ncerr.ErrNoRows, Silent: true}
	}
	logger.Verbose("%d rows", len(rows))

	return Render(c.stdout(), rows)
}
