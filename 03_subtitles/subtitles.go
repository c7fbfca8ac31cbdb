package subtitles

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"news-video-kit/llm"
)

const promptTemplate = `Convert the following narration script into SRT subtitle format for a 60-90 second video.
Generate realistic timestamps starting from 00:00:00,000.
Each subtitle block should be 2-5 seconds long with 1-2 short lines of text.

Return only valid SRT formatted text. No explanations, just the SRT content.

Script:
%s`

var timingLine = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})`)

// Writer produces the SRT subtitle track for a script
type Writer struct {
	gen llm.Generator
	log *slog.Logger
}

// New creates a new subtitle Writer
func New(gen llm.Generator, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{gen: gen, log: logger.With("stage", "subtitles")}
}

// Run asks for SRT text and returns it verbatim. A failed Lint is only logged.
func (w *Writer) Run(ctx context.Context, script string) (string, error) {
	w.log.Info("Generating SRT subtitles")

	srt, err := w.gen.Generate(ctx, BuildPrompt(script))
	if err != nil {
		return "", err
	}

	if err := Lint(srt); err != nil {
		w.log.Warn("Subtitle track does not look like SRT, keeping it as is", "error", err)
	} else {
		w.log.Info("Subtitles ready", "bytes", len(srt))
	}
	return srt, nil
}

func BuildPrompt(script string) string {
	return fmt.Sprintf(promptTemplate, script)
}

// Lint checks that srt has at least one cue, that the first cue starts at
// 00:00:00,000 and that cue start times never go backwards
func Lint(srt string) error {
	scanner := bufio.NewScanner(strings.NewReader(srt))
	lineCount := 0
	cues := 0
	var prevStart time.Duration

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lineCount++

		m := timingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start := timestamp(m[1:5])
		end := timestamp(m[5:9])
		if cues == 0 && start != 0 {
			return fmt.Errorf("first cue starts at %s, want 00:00:00,000", strings.SplitN(line, " ", 2)[0])
		}
		if start < prevStart {
			return fmt.Errorf("cue %d starts before the previous cue", cues+1)
		}
		if end < start {
			return fmt.Errorf("cue %d ends before it starts", cues+1)
		}
		prevStart = start
		cues++
	}

	if lineCount < 3 || cues == 0 {
		return fmt.Errorf("SRT appears empty or malformed (%d lines, %d cues)", lineCount, cues)
	}
	return nil
}

// timestamp converts the hh, mm, ss, mmm captures of timingLine
func timestamp(parts []string) time.Duration {
	units := []time.Duration{time.Hour, time.Minute, time.Second, time.Millisecond}
	var d time.Duration
	for i, p := range parts {
		n, _ := strconv.Atoi(p)
		d += time.Duration(n) * units[i]
	}
	return d
}
