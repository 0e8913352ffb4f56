package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const defaultRecoverAge = 2 * time.Minute

func (c *CLI) newRecoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "List transactions left unmodified for longer than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, _ := cmd.Flags().GetDuration("older-than")
			withMetrics, _ := cmd.Flags().GetBool("metrics")

			components, err := c.application(cmd)
			if err != nil {
				return err
			}

			txs, err := components.App.Recover(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			if err := printTransactions(cmd, txs); err != nil {
				return err
			}

			if !withMetrics {
				return nil
			}
			samples, err := components.Metrics.Snapshot()
			if err != nil {
				return err
			}
			out := cmd.ErrOrStderr()
			for _, s := range samples {
				if _, err := fmt.Fprintf(out, "%s %g\n", s.Name, s.Value); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Duration("older-than", defaultRecoverAge, "Minimum time since the last update")
	cmd.Flags().Bool("metrics", false, "Print repository metrics to stderr after the sweep")
	addJSONFlag(cmd)
	return cmd
}
