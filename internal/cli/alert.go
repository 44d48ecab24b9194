package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dishom/opsboard/pkg/client"
)

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage alert rules",
	}

	cmd.AddCommand(newAlertListCmd())
	cmd.AddCommand(newAlertGetCmd())
	cmd.AddCommand(newAlertDeleteCmd())
	cmd.AddCommand(newAlertApplyCmd())

	return cmd
}

func newAlertListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List alert rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := apiClient.Rules().List(context.Background(), nil)
			if err != nil {
				return fmt.Errorf("failed to list alert rules: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("ID", "NAME", "METRIC", "CONDITION", "WINDOW", "SEVERITY", "ACTIVE")
			for _, r := range page.Data {
				t.AddRow(
					strconv.FormatInt(r.ID, 10),
					truncate(r.Name, 30),
					r.MetricName,
					fmt.Sprintf("%s %g", r.Operator, r.Threshold),
					fmt.Sprintf("%dm", r.WindowMinutes),
					r.Severity,
					strconv.FormatBool(r.Active),
				)
			}
			t.Render()
			return nil
		},
	}
}

func newAlertGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get alert rule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule ID: %s", args[0])
			}

			r, err := apiClient.Rules().Get(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to get alert rule: %w", err)
			}

			return printOutput(r)
		},
	}
}

func newAlertDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule ID: %s", args[0])
			}

			if err := apiClient.Rules().Delete(context.Background(), id); err != nil {
				return fmt.Errorf("failed to delete alert rule: %w", err)
			}
			fmt.Printf("Alert rule %d deleted\n", id)
			return nil
		},
	}
}

// ruleFile is the declarative alert rule file format.
type ruleFile struct {
	Rules []client.RuleSpec `yaml:"rules"`
}

func newAlertApplyCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create alert rules from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read rule file: %w", err)
			}

			var rf ruleFile
			if err := yaml.Unmarshal(data, &rf); err != nil {
				return fmt.Errorf("failed to parse rule file: %w", err)
			}
			if len(rf.Rules) == 0 {
				return fmt.Errorf("no rules found in %s", file)
			}

			ctx := context.Background()
			for _, spec := range rf.Rules {
				id, err := apiClient.Rules().Create(ctx, spec)
				if err != nil {
					return fmt.Errorf("failed to create rule %q: %w", spec.Name, err)
				}
				fmt.Printf("Created rule %q (id %d)\n", spec.Name, id)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with alert rules")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
