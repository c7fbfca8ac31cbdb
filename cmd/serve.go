package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"news-video-kit/config"
	"news-video-kit/kit"
	"news-video-kit/llm"
	"news-video-kit/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP endpoint",
	Long: `Serve POST /generate-video-kit, POST /export-video-kit and GET /health.
A missing AI_API_KEY does not stop the server; every generation request then fails with 500.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gen, err := llm.New(cfg.Generation)
	switch {
	case errors.Is(err, llm.ErrMissingCredential):
		slog.Warn("AI_API_KEY is not set, generation requests will fail until it is configured")
		gen = llm.Unavailable{Err: err}
	case err != nil:
		return fmt.Errorf("create generator: %w", err)
	}
	defer closeGenerator(gen)

	slog.Info("Generator configured",
		"provider", cfg.Generation.Provider,
		"model", cfg.Generation.Model,
		"parallel_stages", cfg.Pipeline.ParallelStages)

	orch := kit.New(gen, kit.OptionsFromConfig(cfg.Pipeline, slog.Default()))
	srv := server.New(cfg, orch, slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
