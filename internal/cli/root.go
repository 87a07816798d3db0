package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bizlink-systems/bizlink-webhooks/internal/cli/client"
	"github.com/bizlink-systems/bizlink-webhooks/internal/cli/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bhook",
	Short: "Webhook pipeline operator CLI",
	Long: `bhook is the operator command-line interface for the webhook
ingestion service.

Inspect pipeline status, trigger retention cleanup, review permanently
failed envelopes, and inject test events.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.bhook/config.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile to use")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// serviceClient resolves the profile from flags and builds an API client.
func serviceClient(cmd *cobra.Command) (*client.Client, error) {
	profile, _ := cmd.Flags().GetString("profile")
	baseURL, err := cfg.ServiceURL(profile)
	if err != nil {
		return nil, err
	}
	return client.New(baseURL), nil
}
