package scenes

import (
	"context"
	"fmt"
	"log/slog"

	"news-video-kit/llm"
	"news-video-kit/types"
)

const expectedScenes = 6

const promptTemplate = `Break the following script into exactly 6 short scenes.

For each scene provide:
- Scene number (1-6)
- Narration text (the portion of the script for this scene)
- Visual description suggestion (what should appear on screen)

Return valid JSON only. Format:
{
  "scenes": [
    {
      "scene": 1,
      "narration": "...",
      "visual": "..."
    }
  ]
}

The JSON must match this schema:
%s

Script:
%s`

var breakdownSchema = llm.SchemaJSON[types.SceneBreakdown]()

// Planner splits a script into scenes
type Planner struct {
	gen llm.Generator
	log *slog.Logger
}

// New creates a new scene Planner
func New(gen llm.Generator, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{gen: gen, log: logger.With("stage", "scenes")}
}

// Run asks for the scene breakdown of script. Generator errors are returned;
// an unparseable breakdown degrades to no scenes.
func (p *Planner) Run(ctx context.Context, script string) ([]types.Scene, error) {
	p.log.Info("Generating scene breakdown")

	raw, err := p.gen.Generate(ctx, BuildPrompt(script))
	if err != nil {
		return nil, err
	}

	scenes, err := Parse(raw)
	if err != nil {
		p.log.Warn("Scene breakdown unparseable, continuing without scenes", "error", err)
		return []types.Scene{}, nil
	}

	if len(scenes) != expectedScenes {
		p.log.Warn("Unexpected scene count", "got", len(scenes), "want", expectedScenes)
	}
	p.log.Info("Scenes ready", "count", len(scenes))
	return scenes, nil
}

// Parse extracts the scenes list from raw model output.
// A valid object without a scenes field yields an empty list.
func Parse(raw string) ([]types.Scene, error) {
	var breakdown types.SceneBreakdown
	if err := llm.DecodeObject(raw, &breakdown); err != nil {
		return nil, err
	}
	if breakdown.Scenes == nil {
		return []types.Scene{}, nil
	}
	return breakdown.Scenes, nil
}

func BuildPrompt(script string) string {
	return fmt.Sprintf(promptTemplate, breakdownSchema, script)
}
