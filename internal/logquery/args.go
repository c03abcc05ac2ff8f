// Package logquery prints the process log rows recorded between two
// dates.  It is a one-shot companion to the scanner client: it connects
// to the plant MySQL server, runs a single range query and exits.
package logquery

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// Usage is printed whenever the arguments cannot be understood.
const Usage = "usage: logquery -s <START DATE> -e <END DATE>"

// DateLayout is the accepted form of -s and -e.
const DateLayout = "2006-01-02"

// ErrUsage reports malformed or missing arguments.
var ErrUsage = errors.New(Usage)

// Range is an inclusive date range.
type Range struct {
	Start string
	End   string
}

// Args is the parsed command line.
type Args struct {
	Range      Range
	ConfigPath string
	Verbose    int
}

// ParseArgs reads -s and -e (in any order, both required) plus the
// optional --config and -v flags.
func ParseArgs(args []string) (Args, error) {
	var a Args
	fs := flag.NewFlagSet("logquery", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&a.Range.Start, "start", "s", "", "First date, YYYY-MM-DD")
	fs.StringVarP(&a.Range.End, "end", "e", "", "Last date, YYYY-MM-DD (inclusive)")
	fs.StringVarP(&a.ConfigPath, "config", "c", "", "YAML configuration file")
	fs.CountVarP(&a.Verbose, "verbose", "v", "Print connection status to stderr")

	if err := fs.Parse(args); err != nil {
		return Args{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 || !fs.Changed("start") || !fs.Changed("end") {
		return Args{}, ErrUsage
	}

	for _, d := range []struct{ name, value string }{
		{"start", a.Range.Start},
		{"end", a.Range.End},
	} {
		if _, err := time.Parse(DateLayout, d.value); err != nil {
			return Args{}, fmt.Errorf("invalid %s date %q: want YYYY-MM-DD", d.name, d.value)
		}
	}
	return a, nil
}
