package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pictag/autotagger/internal/config"
	"github.com/pictag/autotagger/internal/loader"
	"github.com/pictag/autotagger/internal/model"
	"github.com/pictag/autotagger/internal/tagger"
)

const (
	// DefaultThreshold is the evaluate endpoint's minimum confidence
	// when the request does not set one. The web default is looser than
	// the CLI default because browser users want a short list.
	DefaultThreshold = 0.1

	// DefaultLimit caps tags per image when the request does not set one.
	DefaultLimit = 50

	// maxUploadBytes bounds a whole multipart request.
	maxUploadBytes = 64 << 20

	shutdownTimeout = 10 * time.Second
)

// Server serves the upload form and the evaluate endpoint.
type Server struct {
	predictor tagger.Predictor
	addr      string
	batchSize int
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithBatchSize caps how many uploads are fed to the model at once.
func WithBatchSize(n int) Option {
	return func(s *Server) {
		s.batchSize = n
	}
}

// New creates a Server bound to addr.
func New(addr string, predictor tagger.Predictor, opts ...Option) *Server {
	s := &Server{
		predictor: predictor,
		addr:      addr,
		batchSize: config.DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the route table. Exposed separately so tests can
// drive it without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /evaluate", s.handleEvaluate)
	return mux
}

// ListenAndServe runs the server until ctx is canceled, then shuts
// down gracefully, letting in-flight evaluations finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, nil); err != nil {
		s.logger.Error("failed to render index", "error", err)
	}
}

// galleryEntry feeds the HTML results template.
type galleryEntry struct {
	Filename string
	Mime     string
	Base64   string
	Tags     model.TagMap
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	format := formatOf(r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, format, http.StatusBadRequest, "BadRequest", "malformed multipart request")
		return
	}

	threshold := DefaultThreshold
	if v := r.FormValue("threshold"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.writeError(w, format, http.StatusBadRequest, "BadRequest", "threshold must be a number")
			return
		}
		threshold = parsed
	}

	limit := DefaultLimit
	if v := r.FormValue("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			s.writeError(w, format, http.StatusBadRequest, "BadRequest", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	if format != "html" && format != "json" {
		s.writeError(w, format, http.StatusBadRequest, "BadRequest", fmt.Sprintf("unknown format %q", format))
		return
	}

	uploads := r.MultipartForm.File["file"]
	if len(uploads) == 0 {
		s.writeError(w, format, http.StatusBadRequest, "BadRequest", "no file uploaded")
		return
	}

	names := make([]string, 0, len(uploads))
	raw := make([][]byte, 0, len(uploads))
	images := make([]image.Image, 0, len(uploads))
	for _, header := range uploads {
		data, err := readUpload(header)
		if err != nil {
			s.logger.Warn("skipping unreadable upload", "filename", header.Filename, "error", err)
			continue
		}
		img, err := loader.DecodeBytes(data)
		if err != nil {
			s.logger.Warn("skipping upload that is not a readable image", "filename", header.Filename)
			continue
		}
		names = append(names, header.Filename)
		raw = append(raw, data)
		images = append(images, img)
	}

	opts := tagger.Options{Threshold: threshold, Limit: limit, BatchSize: s.batchSize}
	tagMaps, err := s.predictor.Predict(r.Context(), images, opts)
	if err != nil {
		s.logger.Error("prediction failed", "error", err)
		s.writeError(w, format, http.StatusInternalServerError, "InternalServerError", "prediction failed")
		return
	}
	if len(tagMaps) != len(images) {
		s.logger.Error("prediction result count mismatch", "images", len(images), "results", len(tagMaps))
		s.writeError(w, format, http.StatusInternalServerError, "InternalServerError", "prediction failed")
		return
	}

	if format == "json" {
		preds := make([]model.Prediction, len(names))
		for i, name := range names {
			preds[i] = model.Prediction{Filename: name, Tags: tagMaps[i]}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(preds); err != nil {
			s.logger.Error("failed to encode response", "error", err)
		}
		return
	}

	entries := make([]galleryEntry, len(names))
	for i, name := range names {
		entries[i] = galleryEntry{
			Filename: name,
			Mime:     http.DetectContentType(raw[i]),
			Base64:   base64.StdEncoding.EncodeToString(raw[i]),
			Tags:     tagMaps[i],
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := evaluateTemplate.Execute(w, entries); err != nil {
		s.logger.Error("failed to render results", "error", err)
	}
}

// formatOf reads the requested output format, defaulting to html.
func formatOf(r *http.Request) string {
	if v := r.FormValue("format"); v != "" {
		return v
	}
	return "html"
}

// readUpload fully reads one multipart file.
func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // Read-only handle
	return io.ReadAll(f)
}

// writeError renders an error as JSON or as the HTML error page,
// matching the requested format.
func (s *Server) writeError(w http.ResponseWriter, format string, status int, errType, message string) {
	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		resp := struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}{Error: errType, Message: message}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			s.logger.Error("failed to encode error response", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := struct {
		Error   string
		Message string
	}{Error: errType, Message: message}
	if err := errorTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render error page", "error", err)
	}
}
