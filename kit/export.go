package kit

import (
	"fmt"
	"strings"
	"time"

	"news-video-kit/types"
)

// ExportFilename is the suggested download name for RenderText output
const ExportFilename = "video-production-kit.txt"

var divider = strings.Repeat("=", 60)

// RenderText lays the kit out as the plain-text production document
func RenderText(kit *types.VideoKit, generated time.Time) string {
	scenesText := make([]string, 0, len(kit.Scenes))
	for _, s := range kit.Scenes {
		scenesText = append(scenesText, fmt.Sprintf("SCENE %d\nNarration: %s\nVisual: %s", s.Scene, s.Narration, s.Visual))
	}

	sections := []struct {
		title string
		body  string
	}{
		{"NEWS SCRIPT (60-90 seconds)", kit.Script},
		{"SCENE BREAKDOWN", strings.Join(scenesText, "\n\n---\n\n")},
		{"SUBTITLE FILE (SRT FORMAT)", kit.Subtitles},
		{"YOUTUBE TITLES", numbered(kit.Titles)},
		{"THUMBNAIL TEXT OVERLAYS", numbered(kit.ThumbnailTexts)},
	}

	var sb strings.Builder
	sb.WriteString("AUTOMATED NEWS VIDEO BUILDER - PRODUCTION KIT\n")
	fmt.Fprintf(&sb, "Generated: %s\n", generated.Format("1/2/2006"))
	sb.WriteString(divider + "\n")

	for i, sec := range sections {
		if i > 0 {
			sb.WriteString("\n" + divider + "\n")
		}
		fmt.Fprintf(&sb, "\nSECTION %d: %s\n%s\n\n%s\n", i+1, sec.title, divider, sec.body)
	}
	return sb.String()
}

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}
