package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/extractor"
	"github.com/nguyentantai21042004/meeting-flow/internal/ingress"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/model"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
	"github.com/nguyentantai21042004/meeting-flow/internal/transcriber"
)

const (
	UploadPath = "/api/meetings/upload"
	HealthPath = "/healthz"

	formFile     = "file"
	formLanguage = "language"

	multipartMemory = 32 << 20
)

// Options tune the HTTP surface.
type Options struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
	MaxConcurrent  int
}

type handler struct {
	pipeline pipeline.Pipeline
	opts     Options
	runs     *slots
	logger   logger.Logger
}

type healthBody struct {
	Status   string `json:"status"`
	Running  int    `json:"running"`
	Capacity int    `json:"capacity"`
}

type errorBody struct {
	Error string `json:"error"`
}

// NewHandler returns the HTTP routes serving the pipeline.
func NewHandler(p pipeline.Pipeline, opts Options, log logger.Logger) http.Handler {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	h := &handler{
		pipeline: p,
		opts:     opts,
		runs:     newSlots(opts.MaxConcurrent),
		logger:   log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(UploadPath, h.handleUpload)
	mux.HandleFunc(HealthPath, h.handleHealth)
	return mux
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{
		Status:   "ok",
		Running:  h.runs.inUse(),
		Capacity: h.runs.capacity(),
	})
}

// handleUpload reads the multipart "file" field and runs it through the
// pipeline, mapping terminal stage errors onto status codes.
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed."})
		return
	}

	ctx := r.Context()
	if h.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.RequestTimeout)
		defer cancel()
	}

	if h.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	}

	media, cleanup, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Error: fmt.Sprintf("Upload exceeds %d bytes.", tooLarge.Limit),
			})
			return
		}
		h.logger.Warn(ctx, "Unreadable upload: %v", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Malformed upload."})
		return
	}
	defer cleanup()

	if err := h.runs.acquire(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Server busy, try again later."})
		return
	}
	defer h.runs.release()

	outcome := h.pipeline.Run(ctx, media, pipeline.Options{Language: r.FormValue(formLanguage)})
	if outcome.Failed() {
		status, body := errorResponse(outcome.Err)
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, outcome.Response())
}

// readUpload extracts the media blob. A request without the file field, or
// without a multipart body at all, yields media with a nil Body so ingress
// rejects it.
func readUpload(r *http.Request) (model.UploadedMedia, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return model.UploadedMedia{}, noop, nil
		}
		return model.UploadedMedia{}, noop, err
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile(formFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return model.UploadedMedia{}, cleanup, nil
		}
		cleanup()
		return model.UploadedMedia{}, noop, err
	}

	return model.UploadedMedia{Filename: header.Filename, Body: file}, func() {
		file.Close()
		cleanup()
	}, nil
}

func errorResponse(err error) (int, errorBody) {
	var extErr *extractor.ExtractionError
	var trErr *transcriber.TranscriptionError

	switch {
	case errors.Is(err, ingress.ErrNoFileProvided):
		return http.StatusBadRequest, errorBody{Error: "No file uploaded."}
	case errors.As(err, &extErr):
		return http.StatusInternalServerError, errorBody{Error: "Audio extraction failed: " + extErr.Err.Error()}
	case errors.As(err, &trErr):
		return http.StatusInternalServerError, errorBody{Error: "Whisper transcription failed: " + trErr.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: "Processing failed: " + err.Error()}
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
