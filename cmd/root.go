package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"news-video-kit/llm"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	quiet      bool
	logFormat  string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "news-video-kit",
	Short: "Turn a news article into a video production kit",
	Long: `News Video Kit turns a pasted news article into a narration script, a six-scene
breakdown, SRT subtitles, YouTube title ideas and thumbnail text overlays using
an OpenAI-compatible text generation service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr())
	},
}

func setupLogging(w io.Writer) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch logFormat {
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", logFormat)
	}
	slog.SetDefault(slog.New(handler).With("service", "news-video-kit"))
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

// closeGenerator releases generators that hold a connection
func closeGenerator(gen llm.Generator) {
	if c, ok := gen.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("Closing generator failed", "error", err)
		}
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
}
