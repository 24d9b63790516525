package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/mlctf/internal/api/request"
	"github.com/mcoot/mlctf/internal/api/response"
)

func newActCmd() *cobra.Command {
	var req request.ActionRequest

	cmd := &cobra.Command{
		Use:   "act <puzzle-id>",
		Short: "Send one action to a puzzle",
		Long: `Send one action to an unlocked puzzle.

Action types:
  drop     --item <dataset> --target <gate>     place a dataset on a gate
  check                                          validate the current placement or selection
  scan     --target <dataset> --x <n> --y <n>    move the lens over a dataset
  choose   --target <dataset>                    pick the hidden dataset
  set      --value <n>                           dial the slider
  toggle   --item <gadget>                       flip a gadget selection
  shift    --value <n>                           set the cipher shift
  decrypt                                        confirm the decryption
  audit    --value <line>                        mark a vulnerable code line`,
		Example: `  mlctf act 1 --type drop --item spam --target classification
  mlctf act 1 --type check
  mlctf act 3 --type set --value 80`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 {
				return fmt.Errorf("invalid puzzle id %q", args[0])
			}
			if req.Type == "" {
				return fmt.Errorf("--type is required")
			}

			var result response.ActionResponse
			path := fmt.Sprintf("/api/v1/runs/me/puzzles/%d/actions", id)
			if err := client.Post(cmd.Context(), path, req, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Type, "type", "", "Action type")
	cmd.Flags().StringVar(&req.Item, "item", "", "Item being moved or toggled")
	cmd.Flags().StringVar(&req.Target, "target", "", "Target of the action")
	cmd.Flags().IntVar(&req.Value, "value", 0, "Numeric value")
	cmd.Flags().IntVar(&req.X, "x", 0, "Lens column")
	cmd.Flags().IntVar(&req.Y, "y", 0, "Lens row")

	return cmd
}
