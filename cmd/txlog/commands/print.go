package commands

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/txlog/internal/core/domain"
)

func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Print transactions as JSON")
}

func printTransaction(cmd *cobra.Command, tx *domain.Transaction) error {
	return printTransactions(cmd, []*domain.Transaction{tx})
}

func printTransactions(cmd *cobra.Command, txs []*domain.Transaction) error {
	out := cmd.OutOrStdout()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		for _, tx := range txs {
			if err := enc.Encode(tx); err != nil {
				return err
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, tx := range txs {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "xid:\t%s\n", tx.Xid)
		_, _ = fmt.Fprintf(w, "status:\t%s\n", tx.Status)
		_, _ = fmt.Fprintf(w, "type:\t%s\n", tx.Type)
		_, _ = fmt.Fprintf(w, "version:\t%d\n", tx.Version)
		_, _ = fmt.Fprintf(w, "retried:\t%d\n", tx.RetriedCount)
		_, _ = fmt.Fprintf(w, "created:\t%s\n", tx.CreateTime.Format(time.RFC3339))
		_, _ = fmt.Fprintf(w, "updated:\t%s\n", tx.LastUpdateTime.Format(time.RFC3339))
		for _, p := range tx.Participants {
			_, _ = fmt.Fprintf(w, "participant:\t%s\t%s\t%s\n", p.Xid, p.ConfirmMethod, p.CancelMethod)
		}
		for _, k := range slices.Sorted(maps.Keys(tx.Attachments)) {
			_, _ = fmt.Fprintf(w, "attachment:\t%s=%v\n", k, tx.Attachments[k])
		}
	}
	return w.Flush()
}
