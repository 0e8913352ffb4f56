package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/txlog/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

const maxParallelLookups = 8

func (c *CLI) newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show xid [xid...]",
		Short: "Print one or more transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xids, err := parseXids(args)
			if err != nil {
				return err
			}

			components, err := c.application(cmd)
			if err != nil {
				return err
			}

			txs := make([]*domain.Transaction, len(xids))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(maxParallelLookups)
			for i, xid := range xids {
				g.Go(func() error {
					tx, err := components.App.Show(ctx, xid)
					if err != nil {
						return err
					}
					txs[i] = tx
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			return printTransactions(cmd, txs)
		},
	}
	addJSONFlag(cmd)
	return cmd
}

func parseXids(args []string) ([]domain.Xid, error) {
	xids := make([]domain.Xid, 0, len(args))
	for _, arg := range args {
		xid, err := domain.ParseXid(arg)
		if err != nil {
			return nil, err
		}
		xids = append(xids, xid)
	}
	return xids, nil
}
