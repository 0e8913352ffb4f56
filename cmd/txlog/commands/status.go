package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status xid TRYING|CONFIRMING|CANCELLING",
		Short: "Change the status of a transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			xid, err := domain.ParseXid(args[0])
			if err != nil {
				return err
			}
			status, ok := domain.ParseTransactionStatus(args[1])
			if !ok {
				return zerr.With(zerr.Wrap(domain.ErrInvalidArgument, "unknown transaction status"), "status", args[1])
			}

			components, err := c.application(cmd)
			if err != nil {
				return err
			}

			tx, err := components.App.ChangeStatus(cmd.Context(), xid, status)
			if err != nil {
				return err
			}
			return printTransaction(cmd, tx)
		},
	}
	addJSONFlag(cmd)
	return cmd
}
