package cmd

import (
	"fmt"
	"os"

	"Audiotheque/config"
	"Audiotheque/logger"
	"Audiotheque/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "audiotheque",
	Short: "Audiotheque is a private audio library with playlists and a calendar.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and starts the logger.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	return cfg
}

func runServer() error {
	cfg := loadConfig()
	defer logger.Sync()
	return server.Start(cfg)
}
