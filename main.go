package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"seo-keywords/internal/config"
)

func main() {
	// Global panic recovery to prevent application crash
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: application panic recovered: %v\n", r)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		if isConfigError(err) {
			fmt.Fprintln(os.Stderr, "Run with --help for the available flags and environment variables.")
		}
		stop()
		os.Exit(1)
	}
}

func isConfigError(err error) bool {
	return errors.Is(err, config.ErrMissingSeedInput) ||
		errors.Is(err, config.ErrInvalidLimit) ||
		errors.Is(err, config.ErrMissingCredentials)
}
