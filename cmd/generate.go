package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"news-video-kit/config"
	"news-video-kit/kit"
	"news-video-kit/llm"
	"news-video-kit/types"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one video kit from an article file or stdin",
	Long: `Generate runs the full kit pipeline once and prints the result.
With --out-dir (the default) the kit is also written to <out-dir>/<run-id>/ as
kit.json, script.txt, subtitles.srt, video-production-kit.txt and run_state.json.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	articlePath string
	tone        string
	format      string
	outDir      string
)

func init() {
	generateCmd.Flags().StringVarP(&articlePath, "article", "a", "", "article text file, or - for stdin")
	generateCmd.Flags().StringVarP(&tone, "tone", "t", "", `narration tone: "Neutral", "Breaking News", "Explainer", "YouTube Engaging" (default from config)`)
	generateCmd.Flags().StringVarP(&format, "format", "f", "json", "stdout format: json or text")
	generateCmd.Flags().StringVarP(&outDir, "out-dir", "o", "output", "directory for run outputs (empty to skip)")
	generateCmd.MarkFlagRequired("article")

	rootCmd.AddCommand(generateCmd)
}

// runState is written next to the outputs, like a pipeline state file
type runState struct {
	RunID       string `json:"run_id"`
	Tone        string `json:"tone,omitempty"`
	ArticleFile string `json:"article_file"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if format != "json" && format != "text" {
		return fmt.Errorf("unknown format %q (want json or text)", format)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	article, err := readArticle(articlePath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	gen, err := llm.New(cfg.Generation)
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}
	defer closeGenerator(gen)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.RequestTimeout)
	defer cancel()

	runID := kit.NewRunID()
	ctx = kit.WithRunID(ctx, runID)

	state := &runState{
		RunID:       runID,
		Tone:        tone,
		ArticleFile: articlePath,
		StartedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	var runDir string
	if outDir != "" {
		runDir = filepath.Join(outDir, runID)
		if err := os.MkdirAll(runDir, 0755); err != nil {
			return fmt.Errorf("create run dir: %w", err)
		}
		slog.Info("Output dir", "run_id", runID, "path", runDir)
		defer func() {
			state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
			saveJSON(filepath.Join(runDir, "run_state.json"), state)
		}()
	}

	orch := kit.New(gen, kit.OptionsFromConfig(cfg.Pipeline, slog.Default()))
	videoKit, err := orch.Generate(ctx, types.GenerationRequest{Article: article, Tone: types.Tone(tone)})
	if err != nil {
		state.Error = err.Error()
		return err
	}

	if runDir != "" {
		if err := writeKitFiles(runDir, videoKit, time.Now()); err != nil {
			state.Error = err.Error()
			return err
		}
	}

	out := cmd.OutOrStdout()
	if format == "text" {
		_, err = io.WriteString(out, kit.RenderText(videoKit, time.Now()))
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(videoKit)
}

func readArticle(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read article: %w", err)
	}
	return string(data), nil
}

// writeKitFiles stores the kit and its plain-text pieces under dir
func writeKitFiles(dir string, videoKit *types.VideoKit, generated time.Time) error {
	files := map[string]string{
		"script.txt":       videoKit.Script,
		"subtitles.srt":    videoKit.Subtitles,
		kit.ExportFilename: kit.RenderText(videoKit, generated),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	saveJSON(filepath.Join(dir, "kit.json"), videoKit)
	return nil
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Warn("Could not marshal JSON", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Warn("Could not save file", "path", path, "error", err)
	}
}
