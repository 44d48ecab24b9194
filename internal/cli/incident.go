package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dishom/opsboard/pkg/client"
)

func newIncidentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incident",
		Short: "Manage incidents",
	}

	cmd.AddCommand(newIncidentListCmd())
	cmd.AddCommand(newIncidentGetCmd())
	cmd.AddCommand(newIncidentAckCmd())
	cmd.AddCommand(newIncidentResolveCmd())
	cmd.AddCommand(newIncidentAssignCmd())

	return cmd
}

func newIncidentListCmd() *cobra.Command {
	var status, severity string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List incidents",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := apiClient.Incidents().List(context.Background(), &client.IncidentListOptions{
				Status:   status,
				Severity: severity,
			})
			if err != nil {
				return fmt.Errorf("failed to list incidents: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("ID", "SEVERITY", "STATUS", "RULE", "ASSIGNEE", "TITLE")
			for _, inc := range page.Data {
				t.AddRow(
					strconv.FormatInt(inc.ID, 10),
					inc.Severity,
					inc.Status,
					formatNullable(inc.RuleID),
					formatNullable(inc.AssignedTo),
					truncate(inc.Title, 60),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity")

	return cmd
}

func newIncidentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get incident details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid incident ID: %s", args[0])
			}

			inc, err := apiClient.Incidents().Get(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to get incident: %w", err)
			}

			return printOutput(inc)
		},
	}
}

func newIncidentAckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ack <id>",
		Short: "Acknowledge an incident",
		Args:  cobra.ExactArgs(1),
		RunE:  transitionCmd("acknowledged"),
	}
}

func newIncidentResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id> [id...]",
		Short: "Resolve one or more incidents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid incident ID: %s", arg)
				}
				ids = append(ids, id)
			}

			if len(ids) == 1 {
				if err := apiClient.Incidents().UpdateStatus(context.Background(), ids[0], "resolved"); err != nil {
					return fmt.Errorf("failed to resolve incident: %w", err)
				}
				fmt.Printf("Incident %d resolved\n", ids[0])
				return nil
			}

			updated, err := apiClient.Incidents().BulkResolve(context.Background(), ids)
			if err != nil {
				return fmt.Errorf("failed to resolve incidents: %w", err)
			}
			fmt.Printf("%d incidents resolved\n", updated)
			return nil
		},
	}
}

func newIncidentAssignCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "assign <id> <user-id>",
		Short: "Assign an incident to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid incident ID: %s", args[0])
			}
			userID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID: %s", args[1])
			}

			if err := apiClient.Incidents().Assign(context.Background(), id, &userID, notes); err != nil {
				return fmt.Errorf("failed to assign incident: %w", err)
			}
			fmt.Printf("Incident %d assigned to user %d\n", id, userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "assignment notes")

	return cmd
}

func transitionCmd(status string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid incident ID: %s", args[0])
		}

		if err := apiClient.Incidents().UpdateStatus(context.Background(), id, status); err != nil {
			return fmt.Errorf("failed to update incident: %w", err)
		}
		fmt.Printf("Incident %d is now %s\n", id, status)
		return nil
	}
}
