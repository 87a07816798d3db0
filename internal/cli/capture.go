package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bizlink-systems/bizlink-webhooks/internal/cli/output"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Inject a test event into the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := serviceClient(cmd)
		if err != nil {
			return err
		}

		source, _ := cmd.Flags().GetString("source")
		category, _ := cmd.Flags().GetString("category")
		data, _ := cmd.Flags().GetString("data")
		file, _ := cmd.Flags().GetString("file")

		payload := []byte(data)
		if file != "" {
			payload, err = os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read payload file: %w", err)
			}
		}
		if len(payload) == 0 {
			return fmt.Errorf("payload required: use --data or --file")
		}

		resp, err := c.Capture(source, category, payload)
		if err != nil {
			return fmt.Errorf("capture failed: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(resp)
		}

		output.Success("Captured event %s", resp.EventID)
		return nil
	},
}

func init() {
	captureCmd.Flags().String("source", "manual", "source identifier")
	captureCmd.Flags().String("category", "", "event category")
	captureCmd.Flags().String("data", "", "inline JSON payload")
	captureCmd.Flags().String("file", "", "path to payload file")
	rootCmd.AddCommand(captureCmd)
}
