package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action <name> <target-id>",
		Short: "Execute an admin action",
		Long: `Execute one of the remedial admin actions against a target entity:
force_logout, flag_enrollment, or resend_invoice.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid target ID: %s", args[1])
			}

			result, err := apiClient.Actions().Execute(context.Background(), args[0], targetID)
			if err != nil {
				return fmt.Errorf("action failed: %w", err)
			}

			return printOutput(result)
		},
	}

	return cmd
}
