// Package main is the entry point for the txlog tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/txlog/cmd/txlog/commands"
	"go.trai.ch/txlog/internal/adapters/config"
	"go.trai.ch/txlog/internal/app"
	_ "go.trai.ch/txlog/internal/wiring"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func boot(ctx context.Context, path string) (*app.Components, error) {
	components, _, err := graft.ExecuteFor[*app.Components](config.WithPath(ctx, path))
	return components, err
}

func run(args []string) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Interface - CLI; components are initialized once flags are parsed
	cli := commands.New(boot)
	cli.SetArgs(args)
	defer func() {
		_ = cli.Close()
	}()

	// 2. Execution
	if err := cli.Execute(ctx); err != nil {
		if log := cli.Logger(); log != nil {
			log.Error(err)
			return 1
		}
		// Logger is not available if initialization failed
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	return 0
}
