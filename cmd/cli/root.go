package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "wiki-conflict-bot",
	Short: "wiki-conflict-bot watches wiki pull requests for semantic conflicts",
	Long:  `A GitHub App that detects semantic conflicts between open wiki pull requests and posts advisory comments.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
	rootCmd.AddCommand(serveCmd)
}
