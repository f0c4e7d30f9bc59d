// Package server is the web front end: one upload form in, one caption out.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"image"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/image-captioner/internal/config"
	"github.com/menta2k/image-captioner/internal/utils"
	"github.com/menta2k/image-captioner/pkg/caption"
	"github.com/menta2k/image-captioner/pkg/processing"
)

//go:embed index.html.tmpl
var templateFS embed.FS

const msgUnreadableImage = "❌ Could not read that image. Please upload a JPEG, PNG, GIF or WebP file."

// Server serves the captioning form and hands submissions to the caption service.
type Server struct {
	cfg       *config.Config
	service   *caption.Service
	processor *processing.Processor
	tmpl      *template.Template
	httpSrv   *http.Server
}

type pageData struct {
	Model   string
	Caption string
}

// New builds the server and its routes.
func New(cfg *config.Config, service *caption.Service) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		service:   service,
		processor: processing.NewProcessor(),
		tmpl:      tmpl,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /caption", s.handleCaption)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           withRecover(withRequestLogging(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler exposes the configured handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.cfg.Addr())
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleCaption(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		slog.Warn("failed to parse upload", "error", err)
		s.render(w, fmt.Sprintf("❌ Upload failed: %v (limit %s)",
			err, utils.FormatFileSize(s.cfg.MaxUploadBytes)))
		return
	}

	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	img, errMsg := s.readImage(r)
	if errMsg != "" {
		s.render(w, errMsg)
		return
	}

	s.render(w, s.service.GenerateCaption(ctx, img))
}

// readImage pulls an image out of the submission, from the uploaded file if
// present, otherwise from the optional URL field. A nil image with an empty
// message means nothing was submitted; the caption service answers that case.
func (s *Server) readImage(r *http.Request) (image.Image, string) {
	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()

		name := utils.SanitizeFilename(header.Filename)
		if !utils.IsImageFile(header.Filename) {
			slog.Warn("rejected upload with unsupported extension", "filename", name)
			return nil, msgUnreadableImage
		}

		img, err := s.processor.LoadImageFromReader(file)
		if err != nil {
			slog.Warn("failed to decode upload", "filename", name, "error", err)
			return nil, msgUnreadableImage
		}

		slog.Info("image uploaded", "filename", name, "size", utils.FormatFileSize(header.Size))
		return img, ""
	}

	if src := strings.TrimSpace(r.FormValue("image_url")); src != "" {
		img, err := s.processor.LoadImageFromURL(src)
		if err != nil {
			slog.Warn("failed to fetch image URL", "error", err)
			return nil, fmt.Sprintf("❌ Could not fetch that URL: %v", err)
		}
		slog.Info("image fetched", "url", src)
		return img, ""
	}

	return nil, ""
}

func (s *Server) render(w http.ResponseWriter, result string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{
		Model:   s.cfg.Model,
		Caption: result,
	}
	if err := s.tmpl.Execute(w, data); err != nil {
		slog.Error("failed to render page", "error", err)
	}
}
