package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kayz/scout/internal/logger"
)

var (
	logLevel   string
	configPath string
	port       int
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "scout research backend",
	Long: `scout is a local research automation backend.

It extracts research themes from uploaded documents, runs bucketed web
research for active themes on a schedule, and keeps an append-only run
history. All endpoints are served over HTTP on localhost.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Run: runServe,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default .scout.yaml)")
	rootCmd.Flags().IntVar(&port, "port", 0,
		"Listen port (overrides config)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
