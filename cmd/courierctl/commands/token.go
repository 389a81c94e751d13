package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courierwatch/courier-tracker/internal/util"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token [token]",
	Short: "Generates an ingest token and prints its bcrypt hash for INGEST_TOKEN_HASH.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := ""
		if len(args) == 1 {
			token = args[0]
		} else {
			generated, err := util.GenerateToken()
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			token = generated
		}

		hash, err := util.HashSecret(token)
		if err != nil {
			return fmt.Errorf("hash token: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "token: %s\n", token)
		fmt.Fprintf(out, "INGEST_TOKEN_HASH=%s\n", hash)
		return nil
	},
}
