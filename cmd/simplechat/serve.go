package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/simplechat/internal/app"
	"github.com/vovakirdan/simplechat/internal/log"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		logger := log.New(cfg.Server.LogLevel)

		application, err := app.New(&cfg.Server, logger)
		if err != nil {
			return err
		}

		logger.Info().Str("addr", cfg.Server.Addr).Msg("starting simplechat server")
		if err := application.Run(cmd.Context()); err != nil {
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
