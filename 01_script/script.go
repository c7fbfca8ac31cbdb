package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"news-video-kit/llm"
	"news-video-kit/types"
)

const promptTemplate = `Summarize the following article into a 60-90 second engaging news narration script.

Structure:
- Hook (first 5–10 seconds)
- Main Key Points
- Context
- Closing statement

Tone: %s
%s
Article:
%s

Return clean narration text only. No scene labels, no headers, just the narration.`

// toneStyles gives the model a concrete delivery hint for the tones the UI offers
var toneStyles = map[types.Tone]string{
	types.ToneNeutral:         "calm, factual delivery with balanced wording and no speculation",
	types.ToneBreakingNews:    "urgent, present tense, short punchy sentences, most important fact first",
	types.ToneExplainer:       "plain language, walk the viewer through the why and the how, one idea at a time",
	types.ToneYouTubeEngaging: "conversational and energetic, speak directly to the viewer, end with a question",
}

// Writer generates the narration script for an article
type Writer struct {
	gen llm.Generator
	log *slog.Logger
}

// New creates a new script Writer
func New(gen llm.Generator, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{gen: gen, log: logger.With("stage", "script")}
}

// Run generates the narration. The model output is returned verbatim.
func (w *Writer) Run(ctx context.Context, article string, tone types.Tone) (string, error) {
	w.log.Info("Generating narration script", "tone", string(tone))

	script, err := w.gen.Generate(ctx, BuildPrompt(article, tone))
	if err != nil {
		return "", err
	}

	// ~130 words per minute
	words := len(strings.Fields(script))
	w.log.Info("Script ready", "words", words, "est_seconds", int(float64(words)/130.0*60.0))
	return script, nil
}

// BuildPrompt renders the script prompt. Unknown tones are passed through without a style hint.
func BuildPrompt(article string, tone types.Tone) string {
	style := ""
	if s, ok := toneStyles[tone]; ok {
		style = fmt.Sprintf("Style: %s\n", s)
	}
	return fmt.Sprintf(promptTemplate, tone, style, article)
}
