// scanlink - streams a networked barcode scanner to stdout and keeps
// the connection alive across scanner restarts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"scanlink/cmd"
	ncerr "scanlink/internal/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx, os.Args[1:])
	cancel()
	if err == nil {
		return
	}

	// A fatal receive exits 1 without a message.
	var exitErr *ncerr.ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.Silent {
			fmt.Fprintf(os.Stderr, "scanlink: %v\n", err)
		}
		os.Exit(exitErr.Code)
	}
	fmt.Fprintf(os.Stderr, "scanlink: %v\n", err)
	os.Exit(1)
}
