package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tone is the narration style requested for a kit
type Tone string

const (
	ToneNeutral         Tone = "Neutral"
	ToneBreakingNews    Tone = "Breaking News"
	ToneExplainer       Tone = "Explainer"
	ToneYouTubeEngaging Tone = "YouTube Engaging"
)

// Tones lists the labels the UI offers, in display order
var Tones = []Tone{ToneNeutral, ToneBreakingNews, ToneExplainer, ToneYouTubeEngaging}

// GenerationRequest is one (article, tone) submission
type GenerationRequest struct {
	Article string `json:"article"`
	Tone    Tone   `json:"tone"`
}

// Scene is one narration + visual segment of the script
type Scene struct {
	Scene     int    `json:"scene" jsonschema_description:"Scene number, 1 to 6"`
	Narration string `json:"narration" jsonschema_description:"The portion of the script spoken in this scene"`
	Visual    string `json:"visual" jsonschema_description:"What should appear on screen"`
}

// UnmarshalJSON accepts whatever shape the model produced for a scene.
// Numeric strings and floats become ints, missing fields stay zero and
// non-object entries decode to an empty Scene instead of failing the list.
func (s *Scene) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = Scene{}
		return nil
	}
	*s = Scene{
		Scene:     safeInt(raw["scene"]),
		Narration: safeString(raw["narration"]),
		Visual:    safeString(raw["visual"]),
	}
	return nil
}

// SceneBreakdown is the JSON object the scene stage asks for
type SceneBreakdown struct {
	Scenes []Scene `json:"scenes" jsonschema_description:"Exactly 6 scenes in narration order"`
}

// TextList is a list of strings that tolerates non-string scalars from the model
type TextList []string

// UnmarshalJSON stringifies scalar entries and skips nested values
func (l *TextList) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(TextList, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		case bool:
			out = append(out, strconv.FormatBool(t))
		}
	}
	*l = out
	return nil
}

// ThumbnailKit is the JSON object the thumbnail stage asks for
type ThumbnailKit struct {
	Titles     TextList `json:"titles" jsonschema_description:"5 engaging YouTube title ideas"`
	Thumbnails TextList `json:"thumbnails" jsonschema_description:"3 thumbnail text overlays, at most 5 words each"`
}

// VideoKit is the full production kit for one article
type VideoKit struct {
	Script         string   `json:"script"`
	Scenes         []Scene  `json:"scenes"`
	Subtitles      string   `json:"subtitles"`
	Titles         []string `json:"titles"`
	ThumbnailTexts []string `json:"thumbnailTexts"`
}

// Normalize replaces nil collections so they encode as [] rather than null
func (k *VideoKit) Normalize() {
	if k.Scenes == nil {
		k.Scenes = []Scene{}
	}
	if k.Titles == nil {
		k.Titles = []string{}
	}
	if k.ThumbnailTexts == nil {
		k.ThumbnailTexts = []string{}
	}
}

func safeString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func safeInt(v interface{}) int {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return int(f)
		}
	}
	return 0
}
