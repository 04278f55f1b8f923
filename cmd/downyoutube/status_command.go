package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rafaeljuniorvip/downyoutube/internal/api"
	"github.com/rafaeljuniorvip/downyoutube/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, worker and dependency status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			status, err := client.Status(cmd.Context())
			if err != nil {
				if ctx.jsonOutput() {
					return err
				}
				fmt.Fprintln(out, renderSectionHeader("Daemon", colorize))
				fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "not reachable at "+ctx.serverURL(), colorize))
				fmt.Fprintln(out, renderStatusLine("Hint", statusInfo, "start it with `downyoutube serve`", colorize))
				return nil
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			renderDaemonStatus(out, status, colorize)
			return nil
		},
	}
}

func renderDaemonStatus(out io.Writer, status *api.DaemonStatus, colorize bool) {
	wf := status.Workflow
	fmt.Fprintln(out, renderSectionHeader("Daemon", colorize))
	running := statusOK
	if !status.Running {
		running = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", running, fmt.Sprintf("running=%s pid=%d", yesNo(status.Running), status.PID), colorize))
	fmt.Fprintln(out, renderStatusLine("Batch worker", statusInfo, yesNo(wf.WorkerRunning), colorize))
	fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, strconv.Itoa(wf.Pending), colorize))
	fmt.Fprintln(out, renderStatusLine("Immediate", statusInfo, strconv.Itoa(wf.ActiveImmediate)+" active", colorize))
	fmt.Fprintln(out, renderStatusLine("Tasks tracked", statusInfo, strconv.Itoa(wf.Tasks), colorize))
	if wf.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusError, wf.LastError, colorize))
	}

	fmt.Fprintln(out, renderSectionHeader("Storage", colorize))
	space := statusOK
	if status.FreeBytes < preflight.MinFreeBytes {
		space = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Downloads", space, fmt.Sprintf("%s (%s free)", status.DownloadDir, preflight.FormatBytes(status.FreeBytes)), colorize))
	if status.HistoryPath != "" {
		fmt.Fprintln(out, renderStatusLine("History", statusInfo, status.HistoryPath, colorize))
	}

	fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
	for _, dep := range status.Dependencies {
		kind := statusOK
		detail := dep.Command
		if !dep.Available {
			kind = statusError
			if dep.Optional {
				kind = statusWarn
			}
			detail = dep.Detail
		}
		fmt.Fprintln(out, renderStatusLine(dep.Name, kind, detail, colorize))
	}
}
