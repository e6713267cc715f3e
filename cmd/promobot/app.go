package main

import (
	"fmt"
	"log/slog"
	"strings"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	promotion "github.com/IlyaEmelin/chatbot-promotion"
	"github.com/IlyaEmelin/chatbot-promotion/internal/logging"
)

// buildApp assembles the application from the persistent flags shared by all
// serving commands.
func buildApp(cmd *cobra.Command, extra ...promotion.Option) (*promotion.App, *slog.Logger, error) {
	graphPath, _ := cmd.Flags().GetString("graph")
	redisAddr, _ := cmd.Flags().GetString("redis")
	levelName, _ := cmd.Flags().GetString("log-level")

	logger := logging.New(parseLevel(levelName))

	opts := []promotion.Option{
		promotion.WithGraphFile(graphPath),
		promotion.WithLogger(logger),
	}
	if redisAddr != "" {
		client := backend.NewClient(&backend.Options{Addr: redisAddr})
		opts = append(opts, promotion.WithRedis(client))
	}
	opts = append(opts, extra...)

	app, err := promotion.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}
	return app, logger, nil
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
