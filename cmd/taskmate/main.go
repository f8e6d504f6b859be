package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskmate/internal/cli"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx, version); err != nil {
		cancel()
		os.Exit(1)
	}
}
