package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dishom/opsboard/pkg/client"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Browse the audit trail",
	}

	cmd.AddCommand(newLogsListCmd())
	cmd.AddCommand(newLogsTimelineCmd())
	cmd.AddCommand(newLogsTailCmd())

	return cmd
}

func newLogsListCmd() *cobra.Command {
	var action, subsystem, search string
	var pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &client.LogListOptions{
				Action:    action,
				Subsystem: subsystem,
				Search:    search,
			}
			opts.PageSize = pageSize

			page, err := apiClient.Logs().List(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list audit logs: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("ID", "TIMESTAMP", "USER", "ACTION", "APP", "MODEL", "OBJECT")
			for _, e := range page.Data {
				objectID := "-"
				if e.EntityID != nil {
					objectID = *e.EntityID
				}
				t.AddRow(
					fmt.Sprintf("%d", e.ID),
					e.Timestamp.Format("2006-01-02 15:04:05"),
					formatNullable(e.ActorID),
					e.Action,
					e.Subsystem,
					e.EntityKind,
					truncate(objectID, 20),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "filter by action type")
	cmd.Flags().StringVar(&subsystem, "app", "", "filter by subsystem label")
	cmd.Flags().StringVar(&search, "search", "", "substring search")
	cmd.Flags().IntVar(&pageSize, "limit", 20, "entries per page")

	return cmd
}

func newLogsTimelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <app> <model> <id>",
		Short: "Show one entity's chronological trail",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := apiClient.Logs().Timeline(context.Background(), args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("failed to load timeline: %w", err)
			}

			return printOutput(events)
		},
	}
}

func newLogsTailCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream live events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Tailing %q (Ctrl-C to stop)\n", topic)
			err := apiClient.Logs().Tail(ctx, topic, func(msg client.FeedMessage) {
				fmt.Printf("%s  %-14s %-12s %s\n",
					msg.Timestamp.Format("15:04:05"),
					msg.Type,
					msg.Topic,
					string(msg.Data),
				)
			})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "all", "topic to follow: subsystem label, all, or incidents")

	return cmd
}
