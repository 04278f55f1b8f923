package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rafaeljuniorvip/downyoutube/internal/api"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent daemon log lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lines < 0 {
				return errors.New("--lines must not be negative")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Logs(cmd.Context(), api.LogsQuery{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() && !follow {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			for _, line := range resp.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			offset := resp.Offset
			for runCtx.Err() == nil {
				next, err := client.Logs(runCtx, api.LogsQuery{Offset: offset, Follow: true})
				if err != nil {
					if runCtx.Err() != nil {
						return nil
					}
					return err
				}
				for _, line := range next.Lines {
					fmt.Fprintln(out, line)
				}
				offset = next.Offset
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to print")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines as the daemon writes them")
	return cmd
}
