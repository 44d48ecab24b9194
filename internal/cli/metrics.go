package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	var rng string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show metric trends",
		RunE: func(cmd *cobra.Command, args []string) error {
			trends, err := apiClient.Metrics().Trends(context.Background(), rng)
			if err != nil {
				return fmt.Errorf("failed to load metric trends: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(trends)
			}

			names := make([]string, 0, len(trends))
			for name := range trends {
				names = append(names, name)
			}
			sort.Strings(names)

			t := NewTable("METRIC", "CURRENT", "PREVIOUS", "CHANGE")
			for _, name := range names {
				tr := trends[name]
				t.AddRow(
					name,
					fmt.Sprintf("%g", tr.Current),
					fmt.Sprintf("%g", tr.Previous),
					fmt.Sprintf("%+.2f%%", tr.PctChange),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&rng, "range", "", "lookback range, <n>h or <n>d (server default: 7d)")

	return cmd
}
