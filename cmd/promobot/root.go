package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "promobot",
	Short: "Promobot runs promotion sign-up questionnaires",
	Long: `Promobot walks users through a promotion sign-up questionnaire defined
as a graph of questions, with undo, profile projection and a review
lifecycle. It serves the same engine over HTTP, MCP or an interactive
terminal session.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("graph", "g", "questionnaire.yaml", "Path to the questionnaire YAML file")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for survey storage (empty: in-memory)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}
