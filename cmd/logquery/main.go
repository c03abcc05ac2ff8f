// logquery - prints the plant process log between two dates.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ncerr "scanlink/internal/errors"
	"scanlink/internal/logquery"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)

	err := (&logquery.Command{}).Run(ctx, os.Args[1:])
	cancel()
	if err == nil {
		return
	}

	var exitErr *ncerr.ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.Silent {
			fmt.Fprintf(os.Stderr, "logquery: %v\n", err)
		}
		os.Exit(exitErr.Code)
	}
	fmt.Fprintf(os.Stderr, "logquery: %v\n", err)
	os.Exit(1)
}
