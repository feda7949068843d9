package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/curation-evidence-sync/internal/cli"
	"github.com/curation-evidence-sync/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := cli.NewCLI(os.Stdout, os.Stderr).Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", domain.ErrorCode(err), err)
		os.Exit(1)
	}
}
