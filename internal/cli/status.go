package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check server connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Health(context.Background()); err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			fmt.Println("Server is up")
			return nil
		},
	}
}
