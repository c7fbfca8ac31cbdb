package thumbnails

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"news-video-kit/llm"
	"news-video-kit/types"
)

const (
	wantTitles        = 5
	wantThumbnails    = 3
	maxThumbnailWords = 5
)

const promptTemplate = `Based on the following news script, generate:
- 5 engaging YouTube title ideas (compelling and click-worthy)
- 3 thumbnail text overlays (maximum 5 words each, punchy and bold)

Return valid JSON only. Format:
{
  "titles": ["title1", "title2", "title3", "title4", "title5"],
  "thumbnails": ["text1", "text2", "text3"]
}

The JSON must match this schema:
%s

Script:
%s`

var kitSchema = llm.SchemaJSON[types.ThumbnailKit]()

// Generator creates YouTube title ideas and thumbnail overlays
type Generator struct {
	gen llm.Generator
	log *slog.Logger
}

// New creates a new thumbnail Generator
func New(gen llm.Generator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{gen: gen, log: logger.With("stage", "thumbnails")}
}

// Run asks for titles and overlays. Generator errors are returned;
// unparseable output degrades to empty lists.
func (g *Generator) Run(ctx context.Context, script string) (types.ThumbnailKit, error) {
	g.log.Info("Generating titles and thumbnail texts")

	raw, err := g.gen.Generate(ctx, BuildPrompt(script))
	if err != nil {
		return types.ThumbnailKit{}, err
	}

	kit, err := Parse(raw)
	if err != nil {
		g.log.Warn("Thumbnail ideas unparseable, continuing without them", "error", err)
		return types.ThumbnailKit{Titles: types.TextList{}, Thumbnails: types.TextList{}}, nil
	}

	if len(kit.Titles) != wantTitles || len(kit.Thumbnails) != wantThumbnails {
		g.log.Warn("Unexpected idea counts", "titles", len(kit.Titles), "thumbnails", len(kit.Thumbnails))
	}
	for _, t := range kit.Thumbnails {
		if n := len(strings.Fields(t)); n > maxThumbnailWords {
			g.log.Warn("Thumbnail text longer than requested", "text", t, "words", n)
		}
	}
	g.log.Info("Thumbnail ideas ready", "titles", len(kit.Titles), "thumbnails", len(kit.Thumbnails))
	return kit, nil
}

// Parse extracts titles and thumbnails from raw model output. Missing fields are empty lists.
func Parse(raw string) (types.ThumbnailKit, error) {
	var kit types.ThumbnailKit
	if err := llm.DecodeObject(raw, &kit); err != nil {
		return types.ThumbnailKit{}, err
	}
	if kit.Titles == nil {
		kit.Titles = types.TextList{}
	}
	if kit.Thumbnails == nil {
		kit.Thumbnails = types.TextList{}
	}
	return kit, nil
}

func BuildPrompt(script string) string {
	return fmt.Sprintf(promptTemplate, kitSchema, script)
}
