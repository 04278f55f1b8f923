package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rafaeljuniorvip/downyoutube/internal/api"
)

// taskPollInterval is how often --wait re-reads task progress.
var taskPollInterval = 500 * time.Millisecond

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var playlist, single, wait bool
	var cookiesPath string

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Download a URL immediately, outside the batch queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if playlist && single {
				return errors.New("--playlist and --single are mutually exclusive")
			}
			cookies, err := readCookies(cookiesPath)
			if err != nil {
				return err
			}
			req := api.SubmitRequest{URL: args[0], Cookies: cookies}
			switch {
			case playlist:
				req.Type = "playlist"
			case single:
				req.Type = "single"
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			id, err := client.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !wait {
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.SubmitResponse{TaskID: id})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s started\n", id)
				return nil
			}
			task, err := waitForTask(cmd.Context(), client, id, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, task)
			}
			printTask(cmd.OutOrStdout(), task, shouldColorize(cmd.OutOrStdout()))
			if task.Status == "error" {
				return fmt.Errorf("task %s failed: %s", id, task.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&playlist, "playlist", false, "Treat the URL as a playlist")
	cmd.Flags().BoolVar(&single, "single", false, "Treat the URL as a single item even if it carries list=")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the task to finish and show progress")
	cmd.Flags().StringVar(&cookiesPath, "cookies", "", "Netscape cookies file for authenticated sources")
	return cmd
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var filePath, cookiesPath string

	cmd := &cobra.Command{
		Use:   "batch [url...]",
		Short: "Append URLs to the batch queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := append([]string{}, args...)
			if filePath != "" {
				fromFile, err := readURLList(filePath, cmd.InOrStdin())
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return errors.New("provide at least one URL or --file")
			}
			cookies, err := readCookies(cookiesPath)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Batch(cmd.Context(), api.BatchRequest{URLs: urls, Cookies: cookies})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Message)
			rows := make([][]string, 0, len(resp.Items))
			for _, item := range resp.Items {
				rows = append(rows, []string{item.TaskID, item.Type, truncate(item.Title, 60)})
			}
			fmt.Fprintln(out, renderTable([]string{"Task", "Type", "Title"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read URLs from a file, one per line (- for stdin)")
	cmd.Flags().StringVar(&cookiesPath, "cookies", "", "Netscape cookies file for authenticated sources")
	return cmd
}

func newTaskCommand(ctx *commandContext) *cobra.Command {
	var (
		wait    bool
		entries bool
	)

	cmd := &cobra.Command{
		Use:   "task <id>",
		Short: "Show the progress of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if entries {
				if wait {
					return errors.New("--wait and --entries are mutually exclusive")
				}
				return printTaskEntries(cmd, ctx, client, args[0])
			}
			var task *api.Task
			if wait {
				task, err = waitForTask(cmd.Context(), client, args[0], cmd.ErrOrStderr())
			} else {
				task, err = client.Task(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, task)
			}
			printTask(cmd.OutOrStdout(), task, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the task to finish")
	cmd.Flags().BoolVar(&entries, "entries", false, "List the entry tasks of a playlist")
	return cmd
}

func printTaskEntries(cmd *cobra.Command, ctx *commandContext, client *api.Client, id string) error {
	resp, err := client.TaskEntries(cmd.Context(), id)
	if err != nil {
		return err
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, resp)
	}
	out := cmd.OutOrStdout()
	if len(resp.Entries) == 0 {
		fmt.Fprintf(out, "Task %s has no entry tasks\n", id)
		return nil
	}
	rows := make([][]string, 0, len(resp.Entries))
	for _, entry := range resp.Entries {
		detail := entry.Result
		if entry.Error != "" {
			detail = entry.Error
		}
		rows = append(rows, []string{
			entry.ID,
			truncate(entry.Title, 50),
			entry.Status,
			fmt.Sprintf("%.0f%%", entry.Progress),
			truncate(detail, 50),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Task", "Title", "Status", "Progress", "File / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
	return nil
}

// readURLList returns the non-empty, non-comment lines of path.
func readURLList(path string, stdin io.Reader) ([]string, error) {
	var reader io.Reader
	if path == "-" {
		reader = stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open url list: %w", err)
		}
		defer file.Close()
		reader = file
	}
	var urls []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}

func waitForTask(ctx context.Context, client *api.Client, id string, progress io.Writer) (*api.Task, error) {
	ticker := time.NewTicker(taskPollInterval)
	defer ticker.Stop()
	lastLine := ""
	for {
		task, err := client.Task(ctx, id)
		if err != nil {
			return nil, err
		}
		if line := progressLine(task); line != lastLine {
			fmt.Fprintln(progress, line)
			lastLine = line
		}
		switch task.Status {
		case "completed", "error", "cancelled":
			return task, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func progressLine(task *api.Task) string {
	line := fmt.Sprintf("%-11s %5.1f%%", task.Status, task.Progress)
	if task.Total > 0 {
		line += fmt.Sprintf("  [%d/%d]", task.CurrentIndex, task.Total)
	}
	if task.CurrentTitle != "" {
		line += "  " + truncate(task.CurrentTitle, 50)
	}
	return line
}

func printTask(out io.Writer, task *api.Task, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader(task.Title, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", taskStatusKind(task.Status), fmt.Sprintf("%s (%.1f%%)", task.Status, task.Progress), colorize))
	fmt.Fprintln(out, renderStatusLine("Task", statusInfo, task.ID, colorize))
	fmt.Fprintln(out, renderStatusLine("Type", statusInfo, task.Type, colorize))
	fmt.Fprintln(out, renderStatusLine("URL", statusInfo, task.URL, colorize))
	if task.Result != "" {
		fmt.Fprintln(out, renderStatusLine("File", statusOK, task.Result, colorize))
	}
	if task.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, task.Error, colorize))
	}
	if task.Type != "playlist" {
		return
	}
	fmt.Fprintln(out, renderStatusLine("Entries", statusInfo, fmt.Sprintf("%d of %d completed", task.CompletedCount, task.Total), colorize))
	if len(task.Entries) == 0 {
		return
	}
	rows := make([][]string, 0, len(task.Entries))
	for i, entry := range task.Entries {
		detail := entry.Filename
		if entry.Error != "" {
			detail = entry.Error
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), truncate(entry.Title, 50), entry.Status, truncate(detail, 50)})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Title", "Status", "File / Error"}, rows, []columnAlignment{alignRight}))
}
