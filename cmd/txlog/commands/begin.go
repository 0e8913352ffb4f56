package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/txlog/internal/app"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newBeginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "begin",
		Short: "Create a transaction in the TRYING state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := beginOptions(cmd)
			if err != nil {
				return err
			}

			components, err := c.application(cmd)
			if err != nil {
				return err
			}

			tx, err := components.App.Begin(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printTransaction(cmd, tx)
		},
	}
	cmd.Flags().String("root", "", "Create a branch of the given root transaction")
	cmd.Flags().StringArrayP("participant", "p", nil, "Participant as confirmMethod:cancelMethod (repeatable)")
	cmd.Flags().StringToStringP("attach", "a", nil, "Attachment as key=value (repeatable)")
	addJSONFlag(cmd)
	return cmd
}

func beginOptions(cmd *cobra.Command) (app.BeginOptions, error) {
	var opts app.BeginOptions

	root, _ := cmd.Flags().GetString("root")
	if root != "" {
		xid, err := domain.ParseXid(root)
		if err != nil {
			return opts, err
		}
		opts.Root = &xid
	}

	participants, _ := cmd.Flags().GetStringArray("participant")
	for _, p := range participants {
		confirm, cancel, ok := strings.Cut(p, ":")
		if !ok || confirm == "" || cancel == "" {
			return opts, zerr.With(zerr.Wrap(domain.ErrInvalidArgument, "participant must be confirmMethod:cancelMethod"), "participant", p)
		}
		opts.Participants = append(opts.Participants, domain.Participant{
			ConfirmMethod: confirm,
			CancelMethod:  cancel,
		})
	}

	opts.Attachments, _ = cmd.Flags().GetStringToString("attach")
	return opts, nil
}
