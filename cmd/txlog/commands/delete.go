package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/txlog/internal/core/domain"
)

func (c *CLI) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete xid",
		Short: "Remove a transaction from the log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xid, err := domain.ParseXid(args[0])
			if err != nil {
				return err
			}

			components, err := c.application(cmd)
			if err != nil {
				return err
			}

			if err := components.App.Delete(cmd.Context(), xid); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", xid)
			return err
		},
	}
}
