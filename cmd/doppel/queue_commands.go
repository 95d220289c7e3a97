package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"doppel/internal/jobs"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect transformation jobs",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter jobs.Status
			if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
				parsed, ok := jobs.ParseStatus(trimmed)
				if !ok {
					return fmt.Errorf("unknown status %q", trimmed)
				}
				filter = parsed
			}

			return ctx.withStore(func(store *jobs.Store) error {
				list, err := store.ListJobs(cmd.Context())
				if err != nil {
					return fmt.Errorf("list jobs: %w", err)
				}

				rows := make([][]string, 0, len(list))
				for _, job := range list {
					if filter != "" && job.Status != filter {
						continue
					}
					rows = append(rows, []string{
						job.ID,
						string(job.Status),
						strconv.Itoa(job.Progress),
						job.PersonaID,
						formatTimestamp(job.UpdatedAt),
					})
				}

				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No jobs found")
					return nil
				}
				headers := []string{"ID", "Status", "Progress", "Persona", "Updated"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show jobs with this status")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				job, err := store.JobByID(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("fetch job: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", job.ID)
				fmt.Fprintf(out, "User:     %s\n", job.UserID)
				fmt.Fprintf(out, "Persona:  %s\n", job.PersonaID)
				fmt.Fprintf(out, "Status:   %s\n", job.Status)
				fmt.Fprintf(out, "Progress: %d%%\n", job.Progress)
				fmt.Fprintf(out, "Source:   %s\n", job.SourceURL)
				if job.OutputURL != "" {
					fmt.Fprintf(out, "Output:   %s\n", job.OutputURL)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", job.ErrorMessage)
				}
				fmt.Fprintf(out, "Created:  %s\n", formatTimestamp(job.CreatedAt))
				fmt.Fprintf(out, "Updated:  %s\n", formatTimestamp(job.UpdatedAt))
				return nil
			})
		},
	}
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
