package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IlyaEmelin/chatbot-promotion/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the questionnaire as a Mermaid diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		out, err := graph.GenerateMermaid(cmd.Context(), app.Graph, nil)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
