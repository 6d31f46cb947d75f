// Package main is the entry point for the forge build tool.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"forge/cmd/forge/commands"
	"forge/internal/adapters/logger"
	"forge/internal/app"
	"forge/internal/core/domain"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	a := app.New(log)

	cli := commands.New(a, log)
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	if err := cli.Execute(ctx); err != nil {
		code := domain.ExitCodeOf(err)
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return code
	}
	return domain.ExitSuccess
}
