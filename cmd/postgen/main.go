package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autopost/config"
)

var (
	configPath string
	identity   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "postgen",
	Short:        "Generate and post personalized posts",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			config.InitApp()
			return nil
		}
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		config.SetConfig(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default: nearest config.yaml above the working directory)")
	rootCmd.PersistentFlags().StringVarP(&identity, "identity", "i", "", "Identity to act for (default: identity.default)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(personaCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(historyCmd)
}
