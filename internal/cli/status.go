package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bizlink-systems/bizlink-webhooks/internal/cli/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline status",
	Long:  "Show queue depth, in-flight count, drain state, and cumulative counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := serviceClient(cmd)
		if err != nil {
			return err
		}

		status, err := c.Status()
		if err != nil {
			return fmt.Errorf("failed to fetch status: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(status)
		}

		table := output.NewTable([]string{"Field", "Value"})
		table.AddRow([]string{"Pending", strconv.Itoa(status.PendingCount)})
		table.AddRow([]string{"Processing", strconv.Itoa(status.ProcessingCount)})
		table.AddRow([]string{"Draining", strconv.FormatBool(status.IsDraining)})
		table.AddRow([]string{"Uptime", status.UptimeHuman})
		table.AddRow([]string{"Captured", strconv.FormatUint(status.Captured, 10)})
		table.AddRow([]string{"Completed", strconv.FormatUint(status.Completed, 10)})
		table.AddRow([]string{"Retried", strconv.FormatUint(status.Retried, 10)})
		table.AddRow([]string{"Failed", strconv.FormatUint(status.Failed, 10)})
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
