// Command nnview loads a 2D embedding, answers nearest-neighbor queries
// and optionally drives an interactive selection session on stdin.
//
// Usage:
//
//	nnview -csv points.csv -query 12 -k 7
//	nnview -csv points.csv -db nn.db          # import, prints the dataset id
//	nnview -db nn.db -dataset <id> -interactive
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "nnview:", err)
		os.Exit(1)
	}
}
