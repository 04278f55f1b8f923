package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rafaeljuniorvip/downyoutube/internal/api"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var cookiesPath string

	cmd := &cobra.Command{
		Use:   "info <url>",
		Short: "Preview the metadata of a URL without downloading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cookies, err := readCookies(cookiesPath)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			info, err := client.Info(cmd.Context(), api.InfoRequest{URL: args[0], Cookies: cookies})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, info)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderSectionHeader(info.Title, colorize))
			fmt.Fprintln(out, renderStatusLine("Type", statusInfo, info.Type, colorize))
			if info.Channel != "" {
				fmt.Fprintln(out, renderStatusLine("Channel", statusInfo, info.Channel, colorize))
			}
			if info.Type == "playlist" {
				fmt.Fprintln(out, renderStatusLine("Entries", statusInfo, strconv.Itoa(info.Count), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatSeconds(info.Duration), colorize))
			}
			if info.Thumbnail != "" {
				fmt.Fprintln(out, renderStatusLine("Thumbnail", statusInfo, info.Thumbnail, colorize))
			}
			if len(info.Videos) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(info.Videos))
			for i, video := range info.Videos {
				rows = append(rows, []string{strconv.Itoa(i + 1), video.ID, truncate(video.Title, 60), formatSeconds(video.Duration)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "ID", "Title", "Duration"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&cookiesPath, "cookies", "", "Netscape cookies file for authenticated sources")
	return cmd
}
