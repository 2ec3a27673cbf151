// ABOUTME: Entry point for sgu-admin, the catalog admin console CLI
// ABOUTME: Runs the cobra command tree and prints failures in red

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.Red("Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
