package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"doppel/internal/jobs"
)

func newPersonaCommand(ctx *commandContext) *cobra.Command {
	personaCmd := &cobra.Command{
		Use:   "persona",
		Short: "Manage personas",
	}

	personaCmd.AddCommand(newPersonaAddCommand(ctx))
	personaCmd.AddCommand(newPersonaListCommand(ctx))

	return personaCmd
}

func newPersonaAddCommand(ctx *commandContext) *cobra.Command {
	var id string
	var name string
	var faceURL string
	var voiceID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			name = strings.TrimSpace(name)
			faceURL = strings.TrimSpace(faceURL)
			voiceID = strings.TrimSpace(voiceID)
			if name == "" || faceURL == "" || voiceID == "" {
				return fmt.Errorf("--name, --face-url, and --voice-id are required")
			}
			if strings.TrimSpace(id) == "" {
				id = uuid.NewString()
			}

			persona := &jobs.Persona{
				ID:      id,
				Name:    name,
				FaceURL: faceURL,
				VoiceID: voiceID,
			}
			if err := ctx.withStore(func(store *jobs.Store) error {
				return store.CreatePersona(cmd.Context(), persona)
			}); err != nil {
				return fmt.Errorf("create persona: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added persona %s (%s)\n", persona.Name, persona.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Persona identifier (generated when omitted)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVar(&faceURL, "face-url", "", "URL of the persona's face image")
	cmd.Flags().StringVar(&voiceID, "voice-id", "", "Voice identifier for voice conversion")
	return cmd
}

func newPersonaListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				personas, err := store.ListPersonas(cmd.Context())
				if err != nil {
					return fmt.Errorf("list personas: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(personas) == 0 {
					fmt.Fprintln(out, "No personas registered")
					return nil
				}

				rows := make([][]string, 0, len(personas))
				for _, persona := range personas {
					rows = append(rows, []string{
						persona.ID,
						persona.Name,
						persona.VoiceID,
						persona.FaceURL,
					})
				}
				headers := []string{"ID", "Name", "Voice", "Face URL"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}
