package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	promotion "github.com/IlyaEmelin/chatbot-promotion"
	mcpadapter "github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the survey engine as an MCP server so AI agents can run the
questionnaire as tools.

Supported transports:
- stdio (default): standard input/output, for local process integration.
- sse: server-sent events over HTTP, for remote agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		app, logger, err := buildApp(cmd)
		if err != nil {
			return err
		}

		srv := mcpadapter.NewServer(app.Sessions, app.Graph, promotion.Version,
			mcpadapter.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		default:
			return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8090, "Port for the SSE transport")
}
