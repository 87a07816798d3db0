package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bizlink-systems/bizlink-webhooks/internal/cli/output"
)

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List permanently failed envelopes",
	Long:  "List envelopes whose retry budget is exhausted, retained for inspection",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := serviceClient(cmd)
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		resp, err := c.ListFailed(limit)
		if err != nil {
			return fmt.Errorf("failed to list envelopes: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(resp.Envelopes)
		}

		if resp.Count == 0 {
			output.Info("No failed envelopes")
			return nil
		}

		table := output.NewTable([]string{"ID", "Source", "Category", "Attempts", "Received At", "Last Error"})
		for _, env := range resp.Envelopes {
			lastErr := env.LastError
			if len(lastErr) > 60 {
				lastErr = lastErr[:57] + "..."
			}
			table.AddRow([]string{
				env.ID,
				env.Source,
				env.Category,
				strconv.Itoa(env.AttemptCount),
				env.ReceivedAt.Format(time.RFC3339),
				lastErr,
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	failedCmd.Flags().Int("limit", 100, "maximum number of envelopes to list")
	rootCmd.AddCommand(failedCmd)
}
