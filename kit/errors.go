package kit

import (
	"errors"
	"fmt"
)

// ErrEmptyArticle is returned when nothing is left of the article after sanitizing
var ErrEmptyArticle = errors.New("Article text is required.")

const (
	StageScript     = "script"
	StageScenes     = "scenes"
	StageSubtitles  = "subtitles"
	StageThumbnails = "thumbnails"
)

// StageError records which pipeline stage aborted the run
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
