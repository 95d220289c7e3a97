package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the running worker's health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: 5 * time.Second}
			url := fmt.Sprintf("http://%s/healthz", cfg.Paths.HealthBind)
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("probe %s: %w (is doppeld running?)", url, err)
			}
			defer resp.Body.Close()

			var body struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return fmt.Errorf("decode health response: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Worker at %s reports: %s\n", cfg.Paths.HealthBind, body.Status)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("worker unhealthy (HTTP %d)", resp.StatusCode)
			}
			return nil
		},
	}
}
