package kit

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"news-video-kit/llm"
	"news-video-kit/types"
)

const (
	scriptMatch     = "Summarize the following article"
	scenesMatch     = "Break the following script"
	subtitlesMatch  = "SRT subtitle format"
	thumbnailsMatch = "Based on the following news script"

	cannedScript = "Hook. Point one. Point two. Closing."
	cannedSRT    = "1\n00:00:00,000 --> 00:00:03,000\nHook.\n\n2\n00:00:03,000 --> 00:00:06,000\nPoint one.\n"
)

func cannedGenerator() *llm.MockGenerator {
	return llm.NewMockGenerator().
		On(scriptMatch, cannedScript).
		On(scenesMatch, `{"scenes":[{"scene":1,"narration":"Hook.","visual":"closeup"}]}`).
		On(subtitlesMatch, cannedSRT).
		On(thumbnailsMatch, `{"titles":["T1"],"thumbnails":["O1"]}`)
}

func sampleArticle() string {
	return strings.Repeat("The city council approved the new transit budget on Tuesday. ", 50)
}

func TestGenerateEndToEnd(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		gen := cannedGenerator()
		o := New(gen, Options{MaxArticleChars: 15000, Parallel: parallel})

		got, err := o.Generate(context.Background(), types.GenerationRequest{Article: sampleArticle(), Tone: types.ToneExplainer})
		if err != nil {
			t.Fatalf("parallel=%v: Generate() error = %v", parallel, err)
		}

		want := &types.VideoKit{
			Script:         cannedScript,
			Scenes:         []types.Scene{{Scene: 1, Narration: "Hook.", Visual: "closeup"}},
			Subtitles:      cannedSRT,
			Titles:         []string{"T1"},
			ThumbnailTexts: []string{"O1"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("parallel=%v: Generate() = %+v, want %+v", parallel, got, want)
		}

		prompts := gen.Prompts()
		if len(prompts) != 4 {
			t.Fatalf("parallel=%v: %d generator calls, want 4", parallel, len(prompts))
		}
		if !strings.Contains(prompts[0], "Tone: Explainer") {
			t.Errorf("first call should be the script prompt with the tone, got:\n%s", prompts[0])
		}
		for _, p := range prompts[1:] {
			if !strings.Contains(p, cannedScript) || strings.Contains(p, "transit budget") {
				t.Errorf("follow-up prompt should be built from the script, not the article:\n%s", p)
			}
		}
		if !parallel {
			for i, match := range []string{scriptMatch, scenesMatch, subtitlesMatch, thumbnailsMatch} {
				if !strings.Contains(prompts[i], match) {
					t.Errorf("sequential call %d is not the %q stage", i, match)
				}
			}
		}
	}
}

func TestGenerateDegradesMalformedStructuredOutput(t *testing.T) {
	gen := llm.NewMockGenerator().
		On(scriptMatch, cannedScript).
		On(scenesMatch, "Scene one: a closeup. Scene two: a wide shot.").
		On(subtitlesMatch, cannedSRT).
		On(thumbnailsMatch, `{"titles": [unquoted]}`)

	got, err := New(gen, Options{Parallel: true}).Generate(context.Background(), types.GenerationRequest{Article: "news"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	data, _ := json.Marshal(got)
	var wire map[string]interface{}
	json.Unmarshal(data, &wire)
	for _, field := range []string{"scenes", "titles", "thumbnailTexts"} {
		list, ok := wire[field].([]interface{})
		if !ok || len(list) != 0 {
			t.Errorf("%s = %v, want []", field, wire[field])
		}
	}
	if got.Script != cannedScript || got.Subtitles != cannedSRT {
		t.Errorf("script/subtitles not preserved: %+v", got)
	}
}

func TestGenerateAbortsOnStageFailure(t *testing.T) {
	tests := []struct {
		name      string
		failMatch string
		err       error
		wantStage string
	}{
		{"script rate limited", scriptMatch, llm.ErrRateLimited, StageScript},
		{"scenes quota", scenesMatch, llm.ErrQuotaExceeded, StageScenes},
		{"subtitles upstream", subtitlesMatch, &llm.UpstreamError{StatusCode: 500, Body: "boom"}, StageSubtitles},
		{"thumbnails rate limited", thumbnailsMatch, llm.ErrRateLimited, StageThumbnails},
	}

	for _, tt := range tests {
		for _, parallel := range []bool{false, true} {
			gen := llm.NewMockGenerator().Fail(tt.failMatch, tt.err)
			// remaining stages succeed
			gen.On(scriptMatch, cannedScript).On(scenesMatch, `{"scenes":[]}`).On(subtitlesMatch, cannedSRT).On(thumbnailsMatch, `{}`)

			got, err := New(gen, Options{Parallel: parallel}).Generate(context.Background(), types.GenerationRequest{Article: "news"})
			if got != nil {
				t.Errorf("%s parallel=%v: partial kit returned", tt.name, parallel)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("%s parallel=%v: error = %v, want %v", tt.name, parallel, err, tt.err)
			}
			var se *StageError
			if !errors.As(err, &se) || se.Stage != tt.wantStage {
				t.Errorf("%s parallel=%v: error = %v, want stage %s", tt.name, parallel, err, tt.wantStage)
			}
		}
	}
}

func TestGenerateCancelsSiblingsOnFailure(t *testing.T) {
	gen := llm.NewMockGenerator().
		On(scriptMatch, cannedScript).
		Hang(scenesMatch).
		Hang(thumbnailsMatch).
		Fail(subtitlesMatch, llm.ErrRateLimited)

	done := make(chan error, 1)
	go func() {
		_, err := New(gen, Options{Parallel: true}).Generate(context.Background(), types.GenerationRequest{Article: "news"})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, llm.ErrRateLimited) {
			t.Errorf("error = %v, want ErrRateLimited", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Generate did not return; hung stages were not cancelled")
	}
}

func TestGenerateMissingCredentialFailsFast(t *testing.T) {
	o := New(llm.Unavailable{Err: llm.ErrMissingCredential}, Options{})
	_, err := o.Generate(context.Background(), types.GenerationRequest{Article: "news"})
	if !errors.Is(err, llm.ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
}

func TestGenerateRejectsBlankArticle(t *testing.T) {
	gen := cannedGenerator()
	_, err := New(gen, Options{MaxArticleChars: 10}).Generate(context.Background(), types.GenerationRequest{Article: " \n\t "})
	if !errors.Is(err, ErrEmptyArticle) {
		t.Fatalf("error = %v, want ErrEmptyArticle", err)
	}
	if len(gen.Prompts()) != 0 {
		t.Error("generator should not be called for a blank article")
	}
}

func TestGenerateDefaultsTone(t *testing.T) {
	gen := cannedGenerator()
	if _, err := New(gen, Options{}).Generate(context.Background(), types.GenerationRequest{Article: "news"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gen.Prompts()[0], "Tone: Neutral\n") {
		t.Errorf("script prompt should default to Neutral:\n%s", gen.Prompts()[0])
	}
}

func TestGenerateTruncatesArticle(t *testing.T) {
	gen := cannedGenerator()
	article := strings.Repeat("a", 20) + "TAIL"
	if _, err := New(gen, Options{MaxArticleChars: 20}).Generate(context.Background(), types.GenerationRequest{Article: article}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(gen.Prompts()[0], "TAIL") {
		t.Error("article beyond the limit reached the prompt")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"longer", "abcdefg", 5, "abcde"},
		{"multibyte", "héllo wörld", 7, "héllo w"},
		{"disabled", "abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("%s: Truncate(%q, %d) = %q, want %q", tt.name, tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateProperties(t *testing.T) {
	long := strings.Repeat("ü", 15010)
	got := Truncate(long, 15000)
	if n := utf8.RuneCountInString(got); n != 15000 {
		t.Errorf("truncated length = %d, want 15000", n)
	}
	if again := Truncate(got, 15000); again != got {
		t.Error("truncating an already short article changed it")
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("  hello world  ", 15000); got != "hello world" {
		t.Errorf("Sanitize() = %q", got)
	}
	// truncation happens before trimming
	if got := Sanitize("   abc", 4); got != "a" {
		t.Errorf("Sanitize() = %q, want %q", got, "a")
	}
}

func TestRunIDFromContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "abc12345")
	if got := RunID(ctx); got != "abc12345" {
		t.Errorf("RunID() = %q", got)
	}
	if got := RunID(context.Background()); got != "" {
		t.Errorf("RunID() = %q, want empty", got)
	}
	if got := NewRunID(); len(got) != 8 {
		t.Errorf("NewRunID() = %q, want 8 chars", got)
	}
}
