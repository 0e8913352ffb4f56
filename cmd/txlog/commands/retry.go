package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/txlog/internal/core/domain"
)

func (c *CLI) newRetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry xid",
		Short: "Record a recovery attempt on a transaction",
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

			tx, err := components.App.Retry(cmd.Context(), xid)
			if err != nil {
				return err
			}
			return printTransaction(cmd, tx)
		},
	}
	addJSONFlag(cmd)
	return cmd
}
