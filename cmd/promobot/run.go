package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	promotion "github.com/IlyaEmelin/chatbot-promotion"
	"github.com/IlyaEmelin/chatbot-promotion/internal/presentation/tui"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/engine"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Answer the questionnaire interactively in the terminal",
	Long: `Starts a local survey session and walks through the questionnaire.
Type /undo to revert the last answer and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		owner, _ := cmd.Flags().GetString("owner")
		return runInteractive(cmd.Context(), app, owner)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("owner", "local", "Owner reference for the session")
}

func runInteractive(ctx context.Context, app *promotion.App, owner string) error {
	tui.PrintBanner(promotion.Version)
	render := tui.NewRenderer()

	survey, report, err := app.Sessions.Start(ctx, owner, domain.ChannelWeb, false)
	if err != nil {
		return err
	}
	printReport(render, report)

	scanner := bufio.NewScanner(os.Stdin)
	for !survey.Finished() {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())

		switch input {
		case "/quit", "/exit":
			fmt.Println("Bye!")
			return nil
		case "/undo":
			var ok bool
			survey, ok, err = app.Sessions.Revert(ctx, owner)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cannot undo here.")
			}
			report, err = app.Engine.Describe(ctx, survey)
			if err != nil {
				return err
			}
			printReport(render, report)
			continue
		case "/status":
			fmt.Printf("Status: %s\n", survey.Status.Label())
			continue
		}

		survey, report, err = app.Sessions.Advance(ctx, owner, input)
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			fmt.Printf("That value was rejected: %s. Try again.\n", vErr.Reason)
			survey, report, err = app.Sessions.Get(ctx, owner)
		}
		if err != nil {
			return err
		}
		printReport(render, report)
	}

	fmt.Printf("Survey finished. Status: %s\n", survey.Status.Label())
	return nil
}

func printReport(render func(string) (string, error), report *engine.Report) {
	if report == nil || report.Terminal {
		return
	}

	var sb strings.Builder
	sb.WriteString(report.Prompt)
	sb.WriteString("\n")
	for _, choice := range report.Choices {
		sb.WriteString(fmt.Sprintf("\n- %s", choice))
	}
	if report.FreeText {
		sb.WriteString("\n- *(free answer)*")
	}

	out, err := render(sb.String())
	if err != nil {
		out = sb.String()
	}
	fmt.Println(out)
}
