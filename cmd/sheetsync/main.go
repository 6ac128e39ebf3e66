// Package main provides the entry point for the sheetsync CLI tool.
package main

import (
	"context"
	"os"

	"github.com/ideamans/go-sheetsync/cmd/sheetsync/app"
)

// Version information populated at build time.
var version = "dev"

func main() {
	application := app.New(version, os.Stdout, os.Stderr)

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		cancel()
		app.ExitOnError(err)
	}
}
