// Skiff - a dual-pane terminal SFTP client with SSH-config host
// resolution and bastion tunneling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"skiff/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "skiff: %v\n", err)
		os.Exit(1)
	}
}
