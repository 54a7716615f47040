package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"picframe/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent attachment state transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if len(resp.Transitions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no transitions recorded")
					return nil
				}

				rows := make([][]string, 0, len(resp.Transitions))
				for _, t := range resp.Transitions {
					rows = append(rows, []string{
						t.CreatedAt.Local().Format(time.DateTime),
						stateTitle(t.FromState),
						stateTitle(t.ToState),
						t.Detail,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Time", "From", "To", "Detail"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of transitions to show")
	return cmd
}
