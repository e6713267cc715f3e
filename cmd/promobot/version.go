package main

import (
	"fmt"

	"github.com/spf13/cobra"

	promotion "github.com/IlyaEmelin/chatbot-promotion"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the promobot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("promobot version %s\n", promotion.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
