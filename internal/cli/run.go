package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mcoot/mlctf/internal/api/request"
	"github.com/mcoot/mlctf/internal/api/response"
)

func newStartCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new mission run",
		Long:  "Start a new mission run. The session token is saved to the token file for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.StartRunResponse

			if err := client.Post(cmd.Context(), "/api/v1/runs", request.StartRunRequest{Alias: alias}, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Agent alias (default: anonymous)")

	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current run's progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Run

			if err := client.Get(cmd.Context(), "/api/v1/runs/me", &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "End the current run and forget its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			// A token the server no longer knows is cleared all the same
			var apiErr *APIError
			if err := client.Delete(cmd.Context(), "/api/v1/runs/me"); err != nil &&
				!(errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized) {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).PrintMessage("Mission abandoned")
			return nil
		},
	}
}
