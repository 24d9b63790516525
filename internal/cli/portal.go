package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/mlctf/internal/api/request"
	"github.com/mcoot/mlctf/internal/api/response"
)

func newPortalCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "portal <combination>",
		Short:   "Submit the combined flags to the completion portal",
		Example: `  mlctf portal "FLAG{a}-FLAG{b}-FLAG{c}-FLAG{d}-FLAG{e}"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.PortalResponse

			if err := client.Post(cmd.Context(), "/api/v1/runs/me/portal", request.PortalRequest{Combination: args[0]}, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var req request.RegistrationRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Record a completed mission on the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RegistrationResponse

			if err := client.Post(cmd.Context(), "/api/v1/runs/me/registration", req, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Name shown on the leaderboard")
	cmd.Flags().StringVar(&req.Email, "email", "", "Contact email (never shown)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
