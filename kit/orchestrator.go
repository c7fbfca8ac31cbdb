// Package kit turns an article into a video production kit by running the
// script, scene, subtitle and thumbnail stages against a text generator.
package kit

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	script "news-video-kit/01_script"
	scenes "news-video-kit/02_scenes"
	subtitles "news-video-kit/03_subtitles"
	thumbnails "news-video-kit/04_thumbnails"
	"news-video-kit/config"
	"news-video-kit/llm"
	"news-video-kit/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// MaxArticleChars caps the article in characters before trimming. <= 0 disables the cap.
	MaxArticleChars int
	DefaultTone     types.Tone
	// Parallel runs the scene, subtitle and thumbnail stages concurrently
	Parallel bool
	Logger   *slog.Logger
}

// OptionsFromConfig maps the pipeline section of the config file
func OptionsFromConfig(cfg config.PipelineConfig, logger *slog.Logger) Options {
	return Options{
		MaxArticleChars: cfg.MaxArticleChars,
		DefaultTone:     types.Tone(cfg.DefaultTone),
		Parallel:        cfg.ParallelStages,
		Logger:          logger,
	}
}

// Orchestrator runs the kit pipeline. It holds no per-request state.
type Orchestrator struct {
	gen  llm.Generator
	opts Options
	log  *slog.Logger
}

func New(gen llm.Generator, opts Options) *Orchestrator {
	if opts.DefaultTone == "" {
		opts.DefaultTone = types.ToneNeutral
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{gen: gen, opts: opts, log: logger}
}

type runIDKey struct{}

// WithRunID attaches the run ID used in log lines for this request
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run ID from ctx, or "" if none was attached
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// NewRunID returns a short random run ID
func NewRunID() string {
	return uuid.NewString()[:8]
}

// Generate produces the full kit for req. Any generator failure aborts the
// run and no partial kit is returned.
func (o *Orchestrator) Generate(ctx context.Context, req types.GenerationRequest) (*types.VideoKit, error) {
	article := Sanitize(req.Article, o.opts.MaxArticleChars)
	if article == "" {
		return nil, ErrEmptyArticle
	}
	if err := llm.Ready(o.gen); err != nil {
		return nil, err
	}
	tone := req.Tone
	if tone == "" {
		tone = o.opts.DefaultTone
	}

	runID := RunID(ctx)
	if runID == "" {
		runID = NewRunID()
		ctx = WithRunID(ctx, runID)
	}
	log := o.log.With("run_id", runID)
	log.Info("Video kit run starting", "tone", string(tone), "parallel", o.opts.Parallel)
	started := time.Now()

	var narration string
	err := o.runStage(log, StageScript, func() error {
		var err error
		narration, err = script.New(o.gen, log).Run(ctx, article, tone)
		return err
	})
	if err != nil {
		return nil, err
	}

	kit := &types.VideoKit{Script: narration}
	var ideas types.ThumbnailKit

	followUps := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{StageScenes, func(ctx context.Context) (err error) {
			kit.Scenes, err = scenes.New(o.gen, log).Run(ctx, narration)
			return err
		}},
		{StageSubtitles, func(ctx context.Context) (err error) {
			kit.Subtitles, err = subtitles.New(o.gen, log).Run(ctx, narration)
			return err
		}},
		{StageThumbnails, func(ctx context.Context) (err error) {
			ideas, err = thumbnails.New(o.gen, log).Run(ctx, narration)
			return err
		}},
	}

	if o.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, stage := range followUps {
			g.Go(func() error {
				return o.runStage(log, stage.name, func() error { return stage.run(gctx) })
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, stage := range followUps {
			if err := o.runStage(log, stage.name, func() error { return stage.run(ctx) }); err != nil {
				return nil, err
			}
		}
	}

	kit.Titles = []string(ideas.Titles)
	kit.ThumbnailTexts = []string(ideas.Thumbnails)
	kit.Normalize()

	log.Info("Video kit ready",
		"scenes", len(kit.Scenes),
		"titles", len(kit.Titles),
		"thumbnails", len(kit.ThumbnailTexts),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return kit, nil
}

func (o *Orchestrator) runStage(log *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	if err := fn(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Stage cancelled", "stage", name)
		} else {
			log.Error("Stage failed", "stage", name, "error", err)
		}
		return &StageError{Stage: name, Err: err}
	}
	log.Debug("Stage finished", "stage", name, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// Truncate keeps the first max characters of s. max <= 0 returns s unchanged.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// Sanitize truncates the article to max characters, then trims surrounding whitespace
func Sanitize(article string, max int) string {
	return strings.TrimSpace(Truncate(article, max))
}
