// Package commands implements the CLI commands for the txlog tool.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/txlog/internal/adapters/config"
	"go.trai.ch/txlog/internal/app"
	"go.trai.ch/txlog/internal/build"
	"go.trai.ch/txlog/internal/core/ports"
)

// Boot initializes the application from the configuration file at path.
type Boot func(ctx context.Context, path string) (*app.Components, error)

// CLI represents the command line interface for txlog.
type CLI struct {
	boot       Boot
	components *app.Components
	rootCmd    *cobra.Command
}

// New creates a new CLI instance. boot runs once, after flag parsing, for
// commands that need the transaction log.
func New(boot Boot) *CLI {
	rootCmd := &cobra.Command{
		Use:           "txlog",
		Short:         "Inspect and maintain the TCC transaction log",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultFilename, "Path to the configuration file")

	c := &CLI{
		boot:    boot,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBeginCmd())
	rootCmd.AddCommand(c.newShowCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newRetryCmd())
	rootCmd.AddCommand(c.newDeleteCmd())
	rootCmd.AddCommand(c.newRecoverCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// Logger returns the application logger, or nil before the application booted.
func (c *CLI) Logger() ports.Logger {
	if c.components == nil {
		return nil
	}
	return c.components.Logger
}

// Close releases the application if it was booted.
func (c *CLI) Close() error {
	if c.components == nil {
		return nil
	}
	return c.components.Close()
}

func (c *CLI) application(cmd *cobra.Command) (*app.Components, error) {
	if c.components != nil {
		return c.components, nil
	}

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	components, err := c.boot(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	c.components = components
	return components, nil
}
