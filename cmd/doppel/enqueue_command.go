package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"doppel/internal/jobs"
	"doppel/internal/pipeline"
	"doppel/internal/transport"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var personaID string
	var videoURL string

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Create a transformation job and queue it for processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID = strings.TrimSpace(userID)
			personaID = strings.TrimSpace(personaID)
			videoURL = strings.TrimSpace(videoURL)
			if userID == "" || personaID == "" || videoURL == "" {
				return fmt.Errorf("--user, --persona, and --video are required")
			}

			job := &jobs.Job{
				ID:        uuid.NewString(),
				UserID:    userID,
				PersonaID: personaID,
				Status:    jobs.StatusQueued,
				SourceURL: videoURL,
			}

			if err := ctx.withStore(func(store *jobs.Store) error {
				return store.CreateJob(cmd.Context(), job)
			}); err != nil {
				return fmt.Errorf("create job: %w", err)
			}

			msg := pipeline.Message{
				JobID:     job.ID,
				UserID:    job.UserID,
				PersonaID: job.PersonaID,
				VideoURL:  job.SourceURL,
			}
			body, err := msg.Encode()
			if err != nil {
				return err
			}

			if err := ctx.withPublisher(cmd.Context(), func(pub transport.Publisher) error {
				return pub.Publish(cmd.Context(), body)
			}); err != nil {
				return fmt.Errorf("publish job message: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s\n", job.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Identifier of the requesting user")
	cmd.Flags().StringVarP(&personaID, "persona", "p", "", "Persona to apply")
	cmd.Flags().StringVarP(&videoURL, "video", "v", "", "URL of the source video")
	return cmd
}
