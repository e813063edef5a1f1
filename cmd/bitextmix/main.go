package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.NewCLI().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
