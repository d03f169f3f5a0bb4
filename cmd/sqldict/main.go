// Command sqldict lists, renders and executes the statements of a SQL dictionary.
package main

import (
	"context"
	"os"
	"os/signal"
)

// Build information injected via ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(&app{}).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
