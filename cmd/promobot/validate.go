package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IlyaEmelin/chatbot-promotion/internal/validator"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/file"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the questionnaire for structural problems",
	Long: `Loads the questionnaire and reports unreachable questions, dead
references, invalid profile field references and junctions that undo cannot
disambiguate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		graphPath, _ := cmd.Flags().GetString("graph")
		if len(args) > 0 {
			graphPath = args[0]
		}

		g, err := file.Load(graphPath)
		if err != nil {
			return err
		}
		if err := validator.ValidateGraph(cmd.Context(), g); err != nil {
			return err
		}
		fmt.Println("Questionnaire is valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
