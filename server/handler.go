package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"news-video-kit/kit"
	"news-video-kit/types"

	"github.com/gorilla/mux"
)

const (
	msgArticleRequired = "Article text is required."
	msgInvalidKit      = "A video kit JSON body is required."
	msgBodyTooLarge    = "Request body is too large."

	maxBodyBytes = 5 << 20
)

type Handler struct {
	orch    *kit.Orchestrator
	timeout time.Duration
	log     *slog.Logger
}

func NewHandler(orch *kit.Orchestrator, timeout time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{orch: orch, timeout: timeout, log: logger}
}

// RegisterRoutes adds the kit endpoints to r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/generate-video-kit", h.HandleGenerate).Methods("POST")
	r.HandleFunc("/export-video-kit", h.HandleExport).Methods("POST")
}

// generateBody accepts any JSON type so a non-string article is a 400, not a decode error
type generateBody struct {
	Article interface{} `json:"article"`
	Tone    interface{} `json:"tone"`
}

// HandleGenerate - POST /generate-video-kit
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	runID := kit.RunID(r.Context())

	var body generateBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		h.log.Warn("Invalid generate request body", "run_id", runID, "error", err)
		if isTooLarge(err) {
			writeError(h.log, w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeError(h.log, w, http.StatusBadRequest, msgArticleRequired)
		return
	}

	article, ok := body.Article.(string)
	if !ok || article == "" {
		writeError(h.log, w, http.StatusBadRequest, msgArticleRequired)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	videoKit, err := h.orch.Generate(ctx, types.GenerationRequest{
		Article: article,
		Tone:    toneFrom(body.Tone),
	})
	if err != nil {
		if errors.Is(err, kit.ErrEmptyArticle) {
			writeError(h.log, w, http.StatusBadRequest, msgArticleRequired)
			return
		}
		h.log.Error("generate-video-kit error", "run_id", runID, "error", err)
		writeError(h.log, w, http.StatusInternalServerError, errorMessage(err))
		return
	}

	writeJSON(h.log, w, http.StatusOK, videoKit)
}

// HandleExport - POST /export-video-kit
// Renders a kit (possibly edited by the client) as the plain-text production document.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var videoKit types.VideoKit
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&videoKit); err != nil {
		if isTooLarge(err) {
			writeError(h.log, w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeError(h.log, w, http.StatusBadRequest, msgInvalidKit)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kit.ExportFilename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(kit.RenderText(&videoKit, time.Now())))
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// toneFrom maps the raw tone value. Absent, falsy and non-string values fall
// back to the orchestrator's default tone.
func toneFrom(v interface{}) types.Tone {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return types.Tone(s)
}

// errorMessage strips the stage wrapper so the client sees the underlying cause
func errorMessage(err error) string {
	var se *kit.StageError
	if errors.As(err, &se) {
		return se.Err.Error()
	}
	return err.Error()
}
