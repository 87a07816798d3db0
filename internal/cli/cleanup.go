package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bizlink-systems/bizlink-webhooks/internal/cli/output"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove completed envelopes older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := serviceClient(cmd)
		if err != nil {
			return err
		}

		hours, _ := cmd.Flags().GetInt("retention-hours")
		resp, err := c.Cleanup(hours)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(resp)
		}

		output.Success("Removed %d completed envelope(s) older than %dh", resp.Removed, resp.RetentionHours)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().Int("retention-hours", -1, "retention window in hours (default: service setting)")
	rootCmd.AddCommand(cleanupCmd)
}
