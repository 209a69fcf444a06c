package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/simplechat/internal/config"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "simplechat",
	Short: "Terminal chat client and server",
	Long: `simplechat is a small chat system: a server with accounts, rooms and direct
conversations, and a terminal client whose composer grows with the message.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, _, err := config.Load(nil, configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: $SIMPLECHAT_HOME/config.yaml or ./config.yaml)")
}
