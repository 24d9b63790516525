package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/mlctf/internal/flagcodec"
)

func newFlagCmd() *cobra.Command {
	var salt string

	cmd := &cobra.Command{
		Use:   "flag",
		Short: "Encode or decode flag tokens offline",
		// The codec needs no server or token
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	cmd.PersistentFlags().StringVar(&salt, "salt", flagcodec.DefaultSalt, "Codec salt")

	cmd.AddCommand(&cobra.Command{
		Use:   "encode <plain>",
		Short: "Obfuscate a plain flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := flagcodec.New(salt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), codec.Encode(args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decode <token>",
		Short: "Recover a plain flag from its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := flagcodec.New(salt)
			if err != nil {
				return err
			}
			plain, err := codec.Decode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plain)
			return nil
		},
	})

	return cmd
}
