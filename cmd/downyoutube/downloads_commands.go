package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rafaeljuniorvip/downyoutube/internal/fileutil"
	"github.com/rafaeljuniorvip/downyoutube/internal/preflight"
)

func newDownloadsCommand(ctx *commandContext) *cobra.Command {
	downloadsCmd := &cobra.Command{
		Use:   "downloads",
		Short: "Browse and retrieve finished audio files",
	}
	downloadsCmd.AddCommand(newDownloadsListCommand(ctx))
	downloadsCmd.AddCommand(newDownloadsGetCommand(ctx))
	downloadsCmd.AddCommand(newDownloadsFetchCommand(ctx))
	downloadsCmd.AddCommand(newDownloadsHistoryCommand(ctx))
	return downloadsCmd
}

func newDownloadsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List audio files in the download directory, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Downloads(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Files) == 0 {
				fmt.Fprintln(out, "No downloads yet")
				return nil
			}
			rows := make([][]string, 0, len(resp.Files))
			for _, file := range resp.Files {
				size := uint64(max(file.Size, 0))
				rows = append(rows, []string{file.Name, preflight.FormatBytes(size), formatTimestamp(file.Modified)})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Size", "Modified"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newDownloadsGetCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Copy an existing download to a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			saved, err := fileutil.WriteStaged(outputDir, args[0], func(w io.Writer) (string, error) {
				return client.FetchDownload(cmd.Context(), args[0], w)
			})
			if err != nil {
				return err
			}
			printSaved(cmd, saved)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the file into")
	return cmd
}

func newDownloadsFetchCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "fetch <task-id>",
		Short: "Copy the output of a completed task to a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			saved, err := fileutil.WriteStaged(outputDir, args[0], func(w io.Writer) (string, error) {
				return client.FetchTaskFile(cmd.Context(), args[0], w)
			})
			if err != nil {
				return err
			}
			printSaved(cmd, saved)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the file into")
	return cmd
}

func newDownloadsHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently finished tasks recorded by the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Records) == 0 {
				fmt.Fprintln(out, "No history recorded")
				return nil
			}
			rows := make([][]string, 0, len(resp.Records))
			for _, rec := range resp.Records {
				detail := rec.Filename
				if rec.Error != "" {
					detail = rec.Error
				}
				rows = append(rows, []string{
					formatTimestamp(rec.CompletedAt),
					rec.Status,
					truncate(rec.Title, 48),
					truncate(detail, 40),
					formatSeconds(rec.Duration),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Finished", "Status", "Title", "File / Error", "Length"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")
	return cmd
}

func printSaved(cmd *cobra.Command, saved fileutil.Saved) {
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, sha256 %s)\n", saved.Path, preflight.FormatBytes(uint64(saved.Size)), saved.SHA256[:12])
}
